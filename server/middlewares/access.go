package middlewares

import (
	"net/http"

	"github.com/Luismorlan/eventmux/model"
	"github.com/pkg/errors"
)

// Action is the kind of operation a request performs on a resource.
type Action string

const (
	ActionList     Action = "list"
	ActionRetrieve Action = "retrieve"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDestroy  Action = "destroy"
	ActionToggle   Action = "toggle"
)

// Authorize decides whether actor may perform action with the given HTTP
// method on a resource owned by ownerID. A nil actor is anonymous, ownerID is
// ignored for actions without an owner check.
//
//   - list / retrieve: anyone
//   - PATCH, PUT, DELETE: the owner or an admin
//   - everything else: any authenticated actor
func Authorize(action Action, method string, actor *model.User, ownerID uint) error {
	switch method {
	case http.MethodPatch, http.MethodPut, http.MethodDelete:
		if action == ActionToggle {
			break
		}
		if actor == nil {
			return errors.Wrapf(model.ErrUnauthenticated, "%s requires an authenticated user", action)
		}
		if actor.IsAdmin || actor.Id == ownerID {
			return nil
		}
		return errors.Wrapf(model.ErrForbidden, "user %d cannot %s a resource of user %d", actor.Id, action, ownerID)
	}

	switch action {
	case ActionList, ActionRetrieve:
		return nil
	}
	if actor == nil {
		return errors.Wrapf(model.ErrUnauthenticated, "%s requires an authenticated user", action)
	}
	return nil
}
