package main

import (
	cmd "github.com/lexalign/concordance/cmd/concordance"
	"github.com/lexalign/concordance/internal"
)

var log = internal.GetLogger()

func main() {
	log.Info("Starting concordance")
	cmd.Execute()
}
