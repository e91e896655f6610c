package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/text"
	"github.com/mattn/go-colorable"

	"github.com/Termicotra/agendamiento/agenda/agendacli"
	"github.com/Termicotra/agendamiento/log"
)

func main() {
	app := agendacli.GetApp()
	err := app.Run(os.Args)
	if err != nil {
		log.CLI.Debug(err)
		fmt.Fprintln(colorable.NewColorableStderr(), text.Colors{text.FgRed}.Sprint(err.Error()))
		os.Exit(agendacli.ExitCode(err))
	}
}
