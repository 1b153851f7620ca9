// Package main запускает утилиту carbonctl.
package main

import "github.com/mmeshcher/carbonos/internal/cli"

func main() {
	cli.Execute()
}
