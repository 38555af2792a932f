// Command htext-playback prints a key recording as a readable transcript.
package main

import (
	"fmt"
	"os"

	"github.com/kobzarvs/htext/internal/playback"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: htext-playback FILE")
		os.Exit(2)
	}
	events, err := playback.ReadFile(os.Args[1])
	if err == nil {
		err = playback.Transcript(os.Stdout, events)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "htext-playback:", err)
		os.Exit(1)
	}
}
