package common

import (
	"flag"
	"time"
)

var Version = "v0.3.0"
var SystemName = "MeshForge"
var StartTime = time.Now().Unix()

var Port = flag.Int("port", 3000, "the listening port")
var PrintVersion = flag.Bool("version", false, "print version and exit")
var PrintHelpFlag = flag.Bool("help", false, "print help and exit")
var LogDir = flag.String("log-dir", "", "specify the log directory")

var SQLitePath = "data/meshforge.db"

var SessionSecret = "random_string"
var JWTSecret = ""
var JWTRefreshSecret = ""

// WebhookSecret guards the build runner webhook. Empty disables signature
// verification (development only).
var WebhookSecret = ""

// GitHub Actions runner settings. When token or repo is empty the orchestrator
// still records dispatches, it just never reaches out to CI.
var (
	GitHubToken    = ""
	GitHubRepo     = "" // "owner/repo"
	GitHubWorkflow = "firmware-build.yml"
	GitHubRef      = "main"
)

// StaleBuildMaxAge is how long a build may sit in a non-terminal status before
// the reaper marks it failed.
var StaleBuildMaxAge = 4 * time.Hour
var StaleBuildSweepInterval = 15 * time.Minute

var ItemsPerPage = 10

// Role constants
const (
	RoleGuestUser  = 0
	RoleCommonUser = 1
	RoleAdminUser  = 10
	RoleRootUser   = 100
)

// User status constants
const (
	UserStatusEnabled  = 1
	UserStatusDisabled = 2
)

func PrintHelp() {
	println(SystemName + " " + Version)
	println("Usage: meshforge [--port <port>] [--log-dir <log dir>] [--version] [--help]")
}
