package main

import (
	"os"

	"garimpo-backend/cmd/garimpo-cli/cmd"
)

func main() {
	baseUrl, ok := os.LookupEnv("GARIMPO_BASE_URL")
	if !ok {
		baseUrl = "http://localhost:8200"
	}
	cmd.BaseUrl = baseUrl

	cmd.Execute()
}
