package printer

import (
	"context"
	"os"
)

var ConsolePrinter = New(os.Stdout)

func Ctx(ctx context.Context) *Printer {
	return ConsolePrinter.Ctx(ctx)
}

func FatalError(err error) {
	ConsolePrinter.FatalError(err)
}

func Title(title string) {
	ConsolePrinter.Title(title)
}

func StatusList(title string, items []StatusListItem) {
	ConsolePrinter.StatusList(title, items)
}

func List(title string, items []string) {
	ConsolePrinter.List(title, items)
}
