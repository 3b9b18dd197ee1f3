// Command local serves all three functions on one port for development.
// Each function is reachable at /<FunctionName>, or at / when
// FUNCTION_TARGET names it.
package main

import (
	"log"
	"os"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/joho/godotenv"

	// Blank imports register the functions
	_ "github.com/0ladayo/strava-data-pipeline/functions/extract"
	_ "github.com/0ladayo/strava-data-pipeline/functions/load"
	_ "github.com/0ladayo/strava-data-pipeline/functions/webhook"
)

func main() {
	envFile := ".env"
	if f := os.Getenv("ENV_FILE"); f != "" {
		envFile = f
	}
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		log.Fatalf("godotenv.Load(%s): %v\n", envFile, err)
	}

	port := "8080"
	if p := os.Getenv("PORT"); p != "" {
		port = p
	}
	if err := funcframework.Start(port); err != nil {
		log.Fatalf("funcframework.Start: %v\n", err)
	}
}
