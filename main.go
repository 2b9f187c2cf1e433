package main

import (
	"context"
	"fmt"
	"os"

	"fjacquet/txledger/cmd/classify"
	importcmd "fjacquet/txledger/cmd/import"
	"fjacquet/txledger/cmd/ingest"
	"fjacquet/txledger/cmd/migrate"
	"fjacquet/txledger/cmd/root"
	"fjacquet/txledger/cmd/seed"
	"fjacquet/txledger/cmd/serve"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(serve.Cmd)
	root.Cmd.AddCommand(ingest.Cmd)
	root.Cmd.AddCommand(importcmd.Cmd)
	root.Cmd.AddCommand(classify.Cmd)
	root.Cmd.AddCommand(migrate.Cmd)
	root.Cmd.AddCommand(seed.Cmd)
}

func main() {
	err := root.Cmd.ExecuteContext(context.Background())
	root.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
