package main

import "strings"

type commandKind int

const (
	cmdEmpty commandKind = iota
	cmdFile
	cmdText
	cmdPatient
	cmdSearch
	cmdHelp
	cmdExit
	cmdPlain
)

type command struct {
	kind commandKind
	arg  string
}

// searchPhrases trigger the doctor search from plain conversational input.
var searchPhrases = []string{
	"find a doctor",
	"find doctor",
	"find me a doctor",
	"find specialist",
	"find a specialist",
	"search doctor",
	"search for doctor",
	"recommend a doctor",
	"recommend doctor",
	"suggest a doctor",
	"doctor recommendation",
	"which doctor should i see",
}

// parseCommand interprets one REPL line. Lines starting with a -- flag are
// explicit commands; anything else is plain input which may still be a
// natural-language search request.
func parseCommand(line string) command {
	line = strings.TrimSpace(line)
	if line == "" {
		return command{kind: cmdEmpty}
	}

	flag, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(flag) {
	case "--file":
		return command{kind: cmdFile, arg: rest}
	case "--text":
		return command{kind: cmdText, arg: rest}
	case "--patient":
		return command{kind: cmdPatient, arg: rest}
	case "--search":
		return command{kind: cmdSearch}
	case "--help":
		return command{kind: cmdHelp}
	case "--exit", "exit", "quit":
		return command{kind: cmdExit}
	}

	if isSearchRequest(line) {
		return command{kind: cmdSearch}
	}
	return command{kind: cmdPlain, arg: line}
}

func isSearchRequest(line string) bool {
	lower := strings.ToLower(line)
	for _, phrase := range searchPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

const banner = `Medical Report Agent
Type --help for commands, --exit to quit.`

const helpText = `Commands:
  --file <path>     process a report file (pdf, image, audio, or text)
  --text <report>   process report text directly
  --patient <id>    switch the active patient
  --search          find doctors matching the latest summary
  --help            show this help
  --exit            quit

Anything else is treated as a question about the stored reports.
Asking to find or recommend a doctor starts a search.`
