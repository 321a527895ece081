package app

import "os"

var envConfigPath = func() string { return os.Getenv("configPath") }
