// Command statement-worker parses one provider statement. The flattened PDF
// text arrives on stdin, a single JSON result leaves on stdout, and advisory
// PROVIDER tags go to stderr. The exit status stays zero for unrecognised or
// unparseable documents; an empty result is the contract for those.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/clearviewfp/report-engine/internal/providers"
	"github.com/clearviewfp/report-engine/internal/worker"
)

func main() {
	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read stdin: %v\n", err)
		os.Exit(1)
	}
	text := string(input)

	tag := providers.Detect(text)
	fmt.Fprintf(os.Stderr, "%s%s\n", worker.TagProvider, tag)

	result := providers.Extract(tag, text)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "encode result: %v\n", err)
		os.Exit(1)
	}
}
