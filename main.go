package main

import (
	"os"

	"github.com/municipal-dp/digital-profile/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
