// Command dishcalc turns a markdown meal plan and recipe files into one
// shopping list.
package main

import (
	"github.com/joho/godotenv"

	"github.com/mesh-intelligence/dishcalc/internal/cli"
)

func main() {
	// A .env file in the working directory may set DISHCALC_* variables.
	_ = godotenv.Load()
	cli.Execute()
}
