package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron"

	"github.com/hearthledger/hearth/internal/banksync"
	"github.com/hearthledger/hearth/internal/config"
	"github.com/hearthledger/hearth/internal/csvimport"
)

type Runner interface {
	Run() error
}

var runner Runner

func main() {
	singleRun := flag.Bool("single-run", false, "run once (disable cron)")
	configFile := flag.String("config", "./config.yml", "configuration file")
	secretsFile := flag.String("secrets", "./secrets.json", "secrets file")
	accountID := flag.Int64("account", 0, "ledger account id for csv imports")
	help := flag.Bool("help", false, "show command help")

	flag.Parse()

	if *help {
		fmt.Println("hearth bookkeeping importer")
		fmt.Println("hearth [options] task")
		fmt.Println("tasks: import <file>, sync")
		flag.PrintDefaults()
		return
	}

	err := config.ReadConfig(*configFile, *secretsFile)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Println("No task passed in")
		return
	}

	switch args[0] {
	case "import":
		if len(args) < 2 {
			fmt.Println("import needs a statement file")
			os.Exit(1)
		}
		runner, err = csvimport.NewImportCSVRunner(args[1], *accountID)
	case "sync":
		runner, err = banksync.NewImportBankFeedRunner()
	default:
		fmt.Println("No task passed in")
		return
	}

	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	run()

	if *singleRun || args[0] == "import" {
		return
	}

	c := cron.New()
	c.AddFunc(config.CurrentBankSyncConfig().UpdateFrequency, run)

	c.Start()

	select {}

}

func run() {
	fmt.Println(time.Now().Format(time.RFC850))
	err := runner.Run()
	if err != nil {
		fmt.Println(err)
	}
}
