package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Luismorlan/eventmux/model"
	"github.com/Luismorlan/eventmux/server/middlewares"
	"github.com/Luismorlan/eventmux/server/resolver"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// Handlers adapts the resolver operations to JSON over HTTP.
type Handlers struct {
	r *resolver.Resolver
}

// RegisterRoutes mounts the api under /api. Every route resolves the actor
// first, reads are open to anonymous requests unless noted.
func RegisterRoutes(router gin.IRouter, r *resolver.Resolver, provider middlewares.IdentityProvider) {
	h := &Handlers{r: r}
	api := router.Group("/api", middlewares.Authenticate(provider, r.DB))

	activities := api.Group("/activities")
	activities.GET("", h.listActivities)
	activities.GET("/:id", h.getActivity)
	activities.POST("/:id/favorite", h.favorite)
	activities.DELETE("/:id/favorite", h.unfavorite)

	events := api.Group("/events")
	events.GET("", h.listEvents)
	events.POST("", h.createEvent)
	events.GET("/:id", h.getEvent)
	events.PATCH("/:id", h.updateEvent)
	events.DELETE("/:id", h.deleteEvent)
	events.POST("/:id/participate", h.participate)
	events.DELETE("/:id/participate", h.unparticipate)

	comments := events.Group("/:id/comments")
	comments.GET("", h.listComments)
	comments.POST("", h.createComment)
	comments.GET("/:cid", h.getComment)
	comments.PATCH("/:cid", h.updateComment)
	comments.DELETE("/:cid", h.deleteComment)
	comments.POST("/:cid/like", h.like)
	comments.DELETE("/:cid/like", h.unlike)

	api.POST("/users", h.createUser)
	users := api.Group("/users", middlewares.RequireActor())
	users.GET("", h.listUsers)
	users.GET("/me", h.me)
	users.GET("/subscriptions", h.listSubscriptions)
	users.GET("/favorites", h.listFavorites)
	users.GET("/:id", h.getUser)
	users.PATCH("/:id", h.updateUser)
	users.DELETE("/:id", h.deleteUser)
	users.POST("/:id/subscribe", h.subscribe)
	users.DELETE("/:id/subscribe", h.unsubscribe)
}

// respond writes body with status, or the error.
func respond(c *gin.Context, status int, body interface{}, err error) {
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	if body == nil {
		c.Status(status)
		return
	}
	c.JSON(status, body)
}

func pathID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.Wrapf(model.ErrNotFound, "invalid %s %q", name, c.Param(name))
	}
	return uint(id), nil
}

func pageNumber(c *gin.Context) (int, error) {
	raw := c.DefaultQuery("page", "1")
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, model.NewValidationError("page", "invalid page %q", raw)
	}
	return page, nil
}

func queryBool(c *gin.Context, name string) bool {
	switch strings.ToLower(c.Query(name)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

func bindJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		if errors.Is(err, io.EOF) {
			return model.NewValidationError("", "request body is empty")
		}
		return model.NewValidationError("", "malformed request body: %s", err.Error())
	}
	return nil
}

func eventFilter(c *gin.Context) resolver.EventFilter {
	return resolver.EventFilter{
		IsPast:                queryBool(c, "is_past"),
		IsActual:              queryBool(c, "is_actual"),
		IsUserPast:            queryBool(c, "is_user_past"),
		IsUserActual:          queryBool(c, "is_user_actual"),
		InMyParticipationList: queryBool(c, "in_my_participation_list"),
		InMyActivities:        queryBool(c, "in_my_activities"),
		Activities:            c.QueryArray("activity"),
	}
}

func (h *Handlers) listActivities(c *gin.Context) {
	out, err := h.r.ListActivities(c.Request.Context(), middlewares.Actor(c), c.Query("name"))
	respond(c, http.StatusOK, out, err)
}

func (h *Handlers) getActivity(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	out, err := h.r.GetActivity(c.Request.Context(), middlewares.Actor(c), id)
	respond(c, http.StatusOK, out, err)
}

func (h *Handlers) favorite(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	out, err := h.r.Favorite(c.Request.Context(), middlewares.Actor(c), id)
	respond(c, http.StatusCreated, out, err)
}

func (h *Handlers) unfavorite(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	respond(c, http.StatusNoContent, nil, h.r.Unfavorite(c.Request.Context(), middlewares.Actor(c), id))
}

func (h *Handlers) listEvents(c *gin.Context) {
	page, err := pageNumber(c)
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	out, err := h.r.ListEvents(c.Request.Context(), middlewares.Actor(c), eventFilter(c), page)
	respond(c, http.StatusOK, out, err)
}

func (h *Handlers) getEvent(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	out, err := h.r.GetEvent(c.Request.Context(), middlewares.Actor(c), id)
	respond(c, http.StatusOK, out, err)
}

func (h *Handlers) createEvent(c *gin.Context) {
	var input resolver.EventInput
	if err := bindJSON(c, &input); err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	out, err := h.r.CreateEvent(c.Request.Context(), middlewares.Actor(c), input)
	respond(c, http.StatusCreated, out, err)
}

func (h *Handlers) updateEvent(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	var patch resolver.EventPatch
	if err := bindJSON(c, &patch); err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	out, err := h.r.UpdateEvent(c.Request.Context(), middlewares.Actor(c), id, patch)
	respond(c, http.StatusOK, out, err)
}

func (h *Handlers) deleteEvent(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	respond(c, http.StatusNoContent, nil, h.r.DeleteEvent(c.Request.Context(), middlewares.Actor(c), id))
}

func (h *Handlers) participate(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	out, err := h.r.Participate(c.Request.Context(), middlewares.Actor(c), id)
	respond(c, http.StatusCreated, out, err)
}

func (h *Handlers) unparticipate(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	respond(c, http.StatusNoContent, nil, h.r.Unparticipate(c.Request.Context(), middlewares.Actor(c), id))
}

// commentIDs reads the event id and the comment id of comment routes.
func commentIDs(c *gin.Context) (uint, uint, error) {
	eventID, err := pathID(c, "id")
	if err != nil {
		return 0, 0, err
	}
	commentID, err := pathID(c, "cid")
	if err != nil {
		return 0, 0, err
	}
	return eventID, commentID, nil
}

func (h *Handlers) listComments(c *gin.Context) {
	eventID, err := pathID(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	page, err := pageNumber(c)
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	out, err := h.r.ListComments(c.Request.Context(), middlewares.Actor(c), eventID, page)
	respond(c, http.StatusOK, out, err)
}

func (h *Handlers) getComment(c *gin.Context) {
	eventID, commentID, err := commentIDs(c)
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	out, err := h.r.GetComment(c.Request.Context(), middlewares.Actor(c), eventID, commentID)
	respond(c, http.StatusOK, out, err)
}

func (h *Handlers) createComment(c *gin.Context) {
	eventID, err := pathID(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	var input resolver.CommentInput
	if err := bindJSON(c, &input); err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	out, err := h.r.CreateComment(c.Request.Context(), middlewares.Actor(c), eventID, input)
	respond(c, http.StatusCreated, out, err)
}

func (h *Handlers) updateComment(c *gin.Context) {
	eventID, commentID, err := commentIDs(c)
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	var input resolver.CommentInput
	if err := bindJSON(c, &input); err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	out, err := h.r.UpdateComment(c.Request.Context(), middlewares.Actor(c), eventID, commentID, input)
	respond(c, http.StatusOK, out, err)
}

func (h *Handlers) deleteComment(c *gin.Context) {
	eventID, commentID, err := commentIDs(c)
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	respond(c, http.StatusNoContent, nil, h.r.DeleteComment(c.Request.Context(), middlewares.Actor(c), eventID, commentID))
}

func (h *Handlers) like(c *gin.Context) {
	eventID, commentID, err := commentIDs(c)
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	out, err := h.r.Like(c.Request.Context(), middlewares.Actor(c), eventID, commentID)
	respond(c, http.StatusCreated, out, err)
}

func (h *Handlers) unlike(c *gin.Context) {
	eventID, commentID, err := commentIDs(c)
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	respond(c, http.StatusNoContent, nil, h.r.Unlike(c.Request.Context(), middlewares.Actor(c), eventID, commentID))
}

func (h *Handlers) createUser(c *gin.Context) {
	var input resolver.UserInput
	if err := bindJSON(c, &input); err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	out, err := h.r.CreateUser(c.Request.Context(), middlewares.Subject(c), input)
	respond(c, http.StatusCreated, out, err)
}

func (h *Handlers) listUsers(c *gin.Context) {
	page, err := pageNumber(c)
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	out, err := h.r.ListUsers(c.Request.Context(), middlewares.Actor(c), page)
	respond(c, http.StatusOK, out, err)
}

func (h *Handlers) me(c *gin.Context) {
	out, err := h.r.Me(c.Request.Context(), middlewares.Actor(c))
	respond(c, http.StatusOK, out, err)
}

func (h *Handlers) listSubscriptions(c *gin.Context) {
	out, err := h.r.ListSubscriptions(c.Request.Context(), middlewares.Actor(c))
	respond(c, http.StatusOK, out, err)
}

func (h *Handlers) listFavorites(c *gin.Context) {
	out, err := h.r.ListFavoriteActivities(c.Request.Context(), middlewares.Actor(c))
	respond(c, http.StatusOK, out, err)
}

func (h *Handlers) getUser(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	out, err := h.r.GetUser(c.Request.Context(), middlewares.Actor(c), id)
	respond(c, http.StatusOK, out, err)
}

func (h *Handlers) updateUser(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	var patch resolver.UserPatch
	if err := bindJSON(c, &patch); err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	out, err := h.r.UpdateUser(c.Request.Context(), middlewares.Actor(c), id, patch)
	respond(c, http.StatusOK, out, err)
}

func (h *Handlers) deleteUser(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	respond(c, http.StatusNoContent, nil, h.r.DeleteUser(c.Request.Context(), middlewares.Actor(c), id))
}

func (h *Handlers) subscribe(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	out, err := h.r.Subscribe(c.Request.Context(), middlewares.Actor(c), id)
	respond(c, http.StatusCreated, out, err)
}

func (h *Handlers) unsubscribe(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	respond(c, http.StatusNoContent, nil, h.r.Unsubscribe(c.Request.Context(), middlewares.Actor(c), id))
}
