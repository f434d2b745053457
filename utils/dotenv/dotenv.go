package dotenv

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/joho/godotenv"
)

const (
	// EnvName is the variable selecting the runtime environment.
	EnvName = "EVENTMUX_ENV"
	DevEnv  = "dev"
	ProdEnv = "production"

	// RootDirName is the repository directory holding the .env files.
	RootDirName = "eventmux"
	testEnvFile = ".env.test"
)

var rootDirRegexp = regexp.MustCompile(`^(.*` + RootDirName + `)`)

// envFiles lists the files for env in decreasing priority. godotenv never
// overrides a variable that is already set, so earlier files win.
func envFiles(env string) []string {
	return []string{
		// secrets for this environment
		".env." + env + ".local",
		".env.local",
		// database connection for this environment
		".env." + env,
		// shared defaults
		".env",
	}
}

// LoadDotEnvs loads the env files of the working directory for the
// environment named by EVENTMUX_ENV, dev by default. Missing files are
// skipped. Call it once from main.
func LoadDotEnvs() error {
	loadDotEnvs("")
	return nil
}

func loadDotEnvs(rootPath string) {
	env := os.Getenv(EnvName)
	if env == "" {
		env = DevEnv
	}
	for _, file := range envFiles(env) {
		godotenv.Load(filepath.Join(rootPath, file))
	}
}

// LoadDotEnvsInTests loads .env.test from the repository root. Tests run from
// their package directory, so the root is found from the working directory.
func LoadDotEnvsInTests() error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	rootPath := rootDirRegexp.FindString(cwd)
	if rootPath == "" {
		return nil
	}
	godotenv.Load(filepath.Join(rootPath, testEnvFile))
	return nil
}
