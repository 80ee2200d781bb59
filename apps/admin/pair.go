package main

import (
	"context"
	"fmt"
)

// pair generates & prints the pairs of the next week.
func (cli *commandLine) pair(seed *int64) error {
	res, err := cli.pairsSvc.GenerateNextWeek(context.Background(), seed)
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "week %d\n", res.Week)
	if res.HistoryReset {
		fmt.Fprintln(cli.out, "(pairing history was reset)")
	}
	for _, m := range res.Matches {
		fmt.Fprintf(cli.out, "  %s & %s (%.2f)\n", m.Student1.Name, m.Student2.Name, m.Score)
	}
	if res.Unpaired != nil {
		fmt.Fprintf(cli.out, "  unpaired: %s\n", res.Unpaired.Name)
	}
	return nil
}
