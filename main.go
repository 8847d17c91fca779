// Command scribe captures system audio and a microphone in parallel,
// chunks and transcribes them, and merges the result into a narrative
// transcript.
package main

import (
	"os"

	"github.com/ghardin1314/scribe/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
