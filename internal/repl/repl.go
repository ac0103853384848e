package repl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/tabulario/datalens/internal/dispatch"
	"github.com/tabulario/datalens/internal/nlq"
)

// invokeTimeout bounds a single operation; askTimeout additionally
// covers the model round-trip.
const (
	invokeTimeout = 30 * time.Second
	askTimeout    = 60 * time.Second
)

// Start runs the interactive client. The translator may be nil, in
// which case 'ask' is unavailable.
func Start(dispatcher *dispatch.Dispatcher, translator nlq.Translator) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("Welcome to datalens")
	fmt.Println("Type 'help' for commands, 'exit' or '\\q' to quit.")

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}

		if line == "exit" || line == "\\q" {
			break
		}

		switch {
		case line == "help":
			printHelp()

		case line == "tools":
			printTools(os.Stdout, dispatcher.Catalog())

		case line == "files":
			runOp(dispatcher, "list_datasets", nil)

		case strings.HasPrefix(line, "exec "):
			op, args, err := parseExec(strings.TrimPrefix(line, "exec "))
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			runOp(dispatcher, op, args)

		case strings.HasPrefix(line, "ask "):
			ask(dispatcher, translator, strings.TrimPrefix(line, "ask "))

		default:
			fmt.Println("Unknown command. Type 'help' for commands.")
		}
	}
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  tools                      - List available operations")
	fmt.Println("  files                      - List data files")
	fmt.Println("  exec <op> <args-json>      - Invoke an operation, e.g. exec get_stats {\"path\": \"sales.csv\"}")
	fmt.Println("  ask <question>             - Ask in natural language")
	fmt.Println("  help                       - Show this help")
	fmt.Println("  exit                       - Quit")
}

func parseExec(rest string) (string, map[string]any, error) {
	rest = strings.TrimSpace(rest)
	name, rawArgs, _ := strings.Cut(rest, " ")
	if name == "" {
		return "", nil, fmt.Errorf("usage: exec <op> <args-json>")
	}

	args := map[string]any{}
	if strings.TrimSpace(rawArgs) != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return "", nil, fmt.Errorf("arguments must be a JSON object: %w", err)
		}
	}
	return name, args, nil
}

func runOp(dispatcher *dispatch.Dispatcher, name string, args map[string]any) {
	ctx, cancel := context.WithTimeout(context.Background(), invokeTimeout)
	defer cancel()

	result := dispatcher.Invoke(ctx, name, args)
	PrintResult(os.Stdout, result)
}

func ask(dispatcher *dispatch.Dispatcher, translator nlq.Translator, question string) {
	if translator == nil {
		fmt.Println("Natural-language queries are not configured (set OLLAMA_URL).")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
	defer cancel()

	call, err := translator.Translate(ctx, question)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	if call.Explanation != "" {
		fmt.Printf("AI: %s\n", call.Explanation)
	}
	if call.Tool == "" {
		return
	}

	fmt.Printf("Running %s...\n", call.Tool)
	result := dispatcher.Invoke(ctx, call.Tool, call.Parameters)
	PrintResult(os.Stdout, result)
}

// PrintResult renders a dispatch result for the terminal. Table
// payloads come out as aligned columns, everything else as JSON.
func PrintResult(w io.Writer, res dispatch.Result) {
	if res.Error != nil {
		fmt.Fprintf(w, "Error [%s]: %s\n", res.Error.Kind, res.Error.Message)
		return
	}

	switch payload := res.Payload.(type) {
	case dispatch.TableSlice:
		printTable(w, payload)
	case *dispatch.FilterSummary:
		fmt.Fprintf(w, "Matched %d of %d rows (%.2f%%)\n",
			payload.MatchedCount, payload.TotalCount, payload.Percentage)
		printTable(w, payload.Table)
	default:
		pretty, err := json.MarshalIndent(res.Payload, "", "  ")
		if err != nil {
			fmt.Fprintf(w, "%+v\n", res.Payload)
			return
		}
		fmt.Fprintln(w, string(pretty))
	}
}

func printTable(w io.Writer, slice dispatch.TableSlice) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	// Header with types
	for i, col := range slice.Columns {
		fmt.Fprintf(tw, "%s (%s)", col, slice.Types[i])
		if i < len(slice.Columns)-1 {
			fmt.Fprintf(tw, "\t")
		}
	}
	fmt.Fprintln(tw)

	// Separator
	for i := range slice.Columns {
		fmt.Fprintf(tw, "---")
		if i < len(slice.Columns)-1 {
			fmt.Fprintf(tw, "\t")
		}
	}
	fmt.Fprintln(tw)

	// Rows
	for _, row := range slice.Rows {
		for i, cell := range row {
			if cell == "" {
				fmt.Fprintf(tw, "NULL")
			} else {
				fmt.Fprintf(tw, "%s", cell)
			}
			if i < len(row)-1 {
				fmt.Fprintf(tw, "\t")
			}
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()

	if slice.RowCount < slice.TotalRows {
		fmt.Fprintf(w, "(%d of %d rows shown)\n", slice.RowCount, slice.TotalRows)
	}
}

func printTools(w io.Writer, catalog []dispatch.Operation) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, op := range catalog {
		args := make([]string, 0, len(op.Args))
		for _, arg := range op.Args {
			name := arg.Name
			if !arg.Required {
				name += "?"
			}
			args = append(args, name)
		}
		fmt.Fprintf(tw, "%s(%s)\t%s\n", op.Name, strings.Join(args, ", "), op.Description)
	}
	tw.Flush()
}
