// seed loads the activity catalog and the admin list from the app config into
// the database. It is safe to run repeatedly.
package main

import (
	"context"
	"flag"

	"github.com/Luismorlan/eventmux/app_config"
	"github.com/Luismorlan/eventmux/relation"
	"github.com/Luismorlan/eventmux/server/resolver"
	. "github.com/Luismorlan/eventmux/utils"
	"github.com/Luismorlan/eventmux/utils/dotenv"
	. "github.com/Luismorlan/eventmux/utils/flag"
	. "github.com/Luismorlan/eventmux/utils/log"
)

func main() {
	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}
	flag.Parse()
	*ServiceName = Seeder
	InitLogger()

	config, err := app_config.ParseAppConfig(*AppConfigPath)
	if err != nil {
		Log.WithError(err).Fatal("cannot read app config")
	}

	db, err := GetDBConnection()
	if err != nil {
		Log.WithError(err).Fatal("failed to connect to database")
	}
	if err := DatabaseSetupAndMigration(db); err != nil {
		Log.WithError(err).Fatal("failed to migrate database")
	}

	ctx := context.Background()
	r := resolver.NewResolver(db, relation.NewRelations(db), config)

	activities, err := r.EnsureActivities(ctx, config.ACTIVITIES)
	if err != nil {
		Log.WithError(err).Fatal("cannot seed activities")
	}
	Log.Infof("activity catalog holds %d of the configured activities", len(activities))

	granted, err := r.GrantAdmins(ctx, config.ADMINS)
	if err != nil {
		Log.WithError(err).Fatal("cannot grant admins")
	}
	Log.Infof("granted admin to %d users", granted)
}
