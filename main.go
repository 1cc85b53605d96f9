package main

import (
	"os"

	"github.com/soocke/reticle-bot/cmd"
)

func main() {
	os.Exit(cmd.Execute(NewLogger))
}
