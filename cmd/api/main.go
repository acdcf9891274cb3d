package main

import (
	"go.uber.org/fx"

	"github.com/cryptokiosk/kiosk/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
