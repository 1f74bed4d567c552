package cmd

import (
	"flag"

	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion returns the shell completion of bnc: subcommands, their flags,
// and statement files for import.
func Completion() *complete.Command {
	root := &complete.Command{
		Sub: make(map[string]*complete.Command),
		Flags: map[string]complete.Predictor{
			"config": predict.Files("*.toml"),
			"raw":    predict.Nothing,
		},
	}
	for _, c := range Commands {
		fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(fs)
		sub := &complete.Command{Flags: make(map[string]complete.Predictor)}
		fs.VisitAll(func(f *flag.Flag) {
			sub.Flags[f.Name] = predictor(c.Name(), f)
		})
		if c.Name() == "import" {
			sub.Args = predict.Files("*.csv")
		}
		root.Sub[c.Name()] = sub
	}
	return root
}

func predictor(command string, f *flag.Flag) complete.Predictor {
	switch {
	case f.Name == "type" && command == "bank-movement":
		return predict.Set{"balance", "interest", "fee"}
	case f.DefValue == "false":
		return predict.Nothing
	}
	return predict.Something
}
