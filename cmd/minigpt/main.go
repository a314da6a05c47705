// Command minigpt is a terminal chat client for OpenAI chat completions.
package main

import "github.com/diogo/minigpt/internal/commands"

func main() {
	commands.Execute()
}
