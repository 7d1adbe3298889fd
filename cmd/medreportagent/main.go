package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"MedReportAgent/internal/app"
	"MedReportAgent/internal/config"
	"MedReportAgent/internal/logging"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	patientID := cfg.Patient.DefaultID

	fmt.Println(banner)
	fmt.Printf("Active patient: %s\n\n", patientID)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}

		cmd := parseCommand(scanner.Text())
		switch cmd.kind {
		case cmdEmpty:
			continue
		case cmdExit:
			fmt.Println("Goodbye.")
			return
		case cmdHelp:
			fmt.Println(helpText)
		case cmdPatient:
			if cmd.arg == "" {
				fmt.Println("Usage: --patient <id>")
				continue
			}
			patientID = cmd.arg
			fmt.Printf("Active patient: %s\n", patientID)
		case cmdFile:
			if cmd.arg == "" {
				fmt.Println("Usage: --file <path>")
				continue
			}
			respond(application.ProcessFile(ctx, cmd.arg, patientID))
		case cmdText:
			if cmd.arg == "" {
				fmt.Println("Usage: --text <report text>")
				continue
			}
			respond(application.ProcessText(ctx, cmd.arg, patientID))
		case cmdSearch:
			respond(application.SearchSpecialists(ctx, patientID))
		case cmdPlain:
			respond(application.ProcessText(ctx, cmd.arg, patientID))
		}
	}

	if err := scanner.Err(); err != nil {
		logger.Error("reading input", "error", err)
		os.Exit(1)
	}
}

func respond(response string, err error) {
	if err != nil {
		fmt.Printf("ERROR: %v\n\n", err)
		return
	}
	fmt.Println(strings.TrimRight(response, "\n"))
	fmt.Println()
}
