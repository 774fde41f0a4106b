package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jsphweid/voicelead/constants"
	"github.com/jsphweid/voicelead/model"
	"github.com/jsphweid/voicelead/search"
	"github.com/spf13/cobra"
)

var errNoLeading = errors.New("no voice leading above the floor")

var (
	leadTet      int
	leadFrom     string
	leadTo       string
	leadFloor    int
	leadExcludes []string
)

func init() {
	rootCmd.AddCommand(leadCmd)
	leadCmd.Flags().IntVar(&leadTet, "tet", 12, "equal divisions of the octave")
	leadCmd.Flags().StringVar(&leadFrom, "from", "", "source pitch classes, comma separated")
	leadCmd.Flags().StringVar(&leadTo, "to", "", "destination pitch classes, comma separated")
	leadCmd.Flags().IntVar(&leadFloor, "floor", search.NoFloor, "only return leadings moving strictly more than this")
	leadCmd.Flags().StringSliceVar(&leadExcludes, "exclude", nil, "forbidden motions as index:magnitude")
	leadCmd.MarkFlagRequired("from")
	leadCmd.MarkFlagRequired("to")
}

var leadCmd = &cobra.Command{
	Use:   "lead",
	Short: "Prints the minimal voice leadings between two pitch-class sets",
	Long: `Prints the minimal voice leadings between two pitch-class sets

Example: voicelead lead --from 0,4,7 --to 2,5,9 --exclude 2:2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		body := model.LeadRequestBody{Tet: leadTet}
		var err error
		if body.From, err = parseInts(leadFrom); err != nil {
			return fmt.Errorf("--from: %w", err)
		}
		if body.To, err = parseInts(leadTo); err != nil {
			return fmt.Errorf("--to: %w", err)
		}
		if leadFloor != search.NoFloor {
			body.Floor = &leadFloor
		}
		for _, e := range leadExcludes {
			pair, err := parseExclusion(e)
			if err != nil {
				return err
			}
			body.Exclusions = append(body.Exclusions, pair)
		}

		res, err := lead(body)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "displacement %d\n", res.Displacement)
		for _, m := range res.Mappings {
			fmt.Fprintln(out, m)
		}
		return nil
	},
}

// lead validates a request and runs the search on it.
func lead(body model.LeadRequestBody) (model.LeadResponse, error) {
	var res model.LeadResponse
	if body.Tet <= 0 {
		return res, fmt.Errorf("tet must be positive, got %d", body.Tet)
	}
	if len(body.From) != len(body.To) {
		return res, fmt.Errorf("from has %d pitch classes, to has %d", len(body.From), len(body.To))
	}
	if len(body.From) > constants.MaxSearchCardinality {
		return res, fmt.Errorf("at most %d pitch classes are supported", constants.MaxSearchCardinality)
	}
	for _, pcs := range [][]int{body.From, body.To} {
		for _, pc := range pcs {
			if pc < 0 || pc >= body.Tet {
				return res, fmt.Errorf("pitch class %d outside [0, %d)", pc, body.Tet)
			}
		}
	}

	excl := make(search.Exclusions)
	for _, pair := range body.Exclusions {
		if len(pair) != 2 || pair[0] < 0 || pair[0] >= len(body.From) || pair[1] < 0 {
			return res, fmt.Errorf("bad exclusion %v, want [index, magnitude]", pair)
		}
		excl.Add(pair[0], pair[1])
	}
	floor := search.NoFloor
	if body.Floor != nil {
		floor = *body.Floor
	}

	found, ok := search.Search(body.From, body.To, body.Tet, excl, floor)
	if !ok {
		return res, errNoLeading
	}
	res.Displacement = found.Displacement
	res.Mappings = found.Mappings
	return res, nil
}

func parseInts(s string) ([]int, error) {
	var res []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", field)
		}
		res = append(res, n)
	}
	return res, nil
}

func parseExclusion(s string) ([]int, error) {
	index, magnitude, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("exclusion %q, want index:magnitude", s)
	}
	pair, err := parseInts(index + "," + magnitude)
	if err != nil || len(pair) != 2 {
		return nil, fmt.Errorf("exclusion %q, want index:magnitude", s)
	}
	return pair, nil
}
