// database_utils should be the canonical place to put shared DB utils.
// It should not include:
// 1. Any util that doesn't manipulate DB
// 2. Any util that contains business logic
package utils

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/Luismorlan/eventmux/model"
	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TestDBPrefix         = "testonlydb_"
	TestDBNameCharLength = 8

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// GormTransaction is the callback function used during db.Transaction in Gorm.
type GormTransaction func(tx *gorm.DB) error

func isTempDB(dbName string) bool {
	return strings.HasPrefix(dbName, TestDBPrefix)
}

func randomTestDBName() string {
	return TestDBPrefix + RandomAlphabetString(TestDBNameCharLength)
}

// GetDBConnection get a connection to the database specified by env. Postgres
// is the default, DB_DRIVER=sqlite opens the file at SQLITE_PATH instead.
func GetDBConnection() (*gorm.DB, error) {
	if os.Getenv("DB_DRIVER") == DriverSQLite {
		return GetSQLiteConnection(os.Getenv("SQLITE_PATH"))
	}
	return GetCustomizedConnection(os.Getenv("DB_NAME"))
}

// GetCustomizedConnection connect to any postgres db
func GetCustomizedConnection(dbName string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable", os.Getenv("DB_HOST"), os.Getenv("DB_USER"), os.Getenv("DB_PASS"), dbName, os.Getenv("DB_PORT"))
	return getDB(postgres.Open(dsn))
}

// GetSQLiteConnection opens a SQLite database with foreign key enforcement on,
// so that cascade deletes behave the same as on postgres. SQLite serializes
// writers anyway, a single connection avoids "database is locked" errors.
func GetSQLiteConnection(path string) (*gorm.DB, error) {
	if path == "" {
		return nil, errors.New("SQLITE_PATH is not set")
	}
	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&_pragma=foreign_keys(1)"
	} else {
		dsn += "?_pragma=foreign_keys(1)"
	}
	db, err := getDB(sqlite.Open(dsn))
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Create a temp DB for testing, note that this function should only be called
// in a testing environment with test state manager testing.T
// Each call returns an isolated in-memory SQLite database that is fully
// migrated. It is dropped together with its last connection on cleanup, user
// will not need to drop the database explicitly.
func CreateTempDB(t *testing.T) (*gorm.DB, string) {
	t.Helper()
	dbName := randomTestDBName()
	db, err := GetSQLiteConnection(fmt.Sprintf("file:%s?mode=memory&cache=shared", dbName))
	if err != nil {
		t.Fatalf("fail to create temp DB with name %s: %v", dbName, err)
	}
	if err := DatabaseSetupAndMigration(db); err != nil {
		t.Fatalf("fail to migrate temp DB with name %s: %v", dbName, err)
	}
	t.Cleanup(func() {
		dropTempDB(db, dbName)
	})

	return db, dbName
}

// dropTempDB releases a temp db with given name. This will always be called
// after CreateTempDB. Closing the last connection of an in-memory database
// frees it.
func dropTempDB(curDB *gorm.DB, dbName string) {
	if !isTempDB(dbName) {
		panic("cannot delete a non-testing DB")
	}
	sqlDB, err := curDB.DB()
	if err != nil {
		return
	}
	sqlDB.Close()
}

func getDB(dialector gorm.Dialector) (db *gorm.DB, err error) {
	return gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// Constraint violations surface as gorm.ErrDuplicatedKey and
		// gorm.ErrForeignKeyViolated regardless of the driver.
		TranslateError: true,
	})
}

// DatabaseSetupAndMigration registers the custom join tables and migrates the
// whole schema.
func DatabaseSetupAndMigration(db *gorm.DB) error {
	var err error

	err = db.SetupJoinTable(&model.EventPost{}, "Activities", &model.ActivityForEventPost{})
	if err != nil {
		panic("failed to set up join table activity_for_event_posts")
	}

	err = db.SetupJoinTable(&model.EventPost{}, "Participants", &model.Participation{})
	if err != nil {
		panic("failed to set up join table participations")
	}

	err = db.SetupJoinTable(&model.Comment{}, "Likers", &model.Like{})
	if err != nil {
		panic("failed to set up join table likes")
	}

	err = db.SetupJoinTable(&model.User{}, "FavoriteActivities", &model.FavoriteActivity{})
	if err != nil {
		panic("failed to set up join table favorite_activities")
	}

	return db.AutoMigrate(
		&model.User{},
		&model.Activity{},
		&model.EventPost{},
		&model.Comment{},
		&model.Subscribe{},
	)
}
