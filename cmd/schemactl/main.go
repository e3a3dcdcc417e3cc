package main

import (
    "fmt"
    "os"

    "github.com/amirimatin/go-schemacheck/pkg/cli"
)

func main() {
    err := (&cli.App{}).NewRootCommand().Execute()
    if err != nil {
        fmt.Fprintln(os.Stderr, err)
    }
    os.Exit(cli.ExitCode(err))
}
