package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mcoot/sortinghat/internal/api/response"
	"github.com/mcoot/sortinghat/internal/catalog"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	out    io.Writer
	errOut io.Writer
}

// NewOutput creates a new Output formatter writing to stdout
func NewOutput(format string) *Output {
	return NewOutputTo(format, os.Stdout, os.Stderr)
}

// NewOutputTo creates an Output writing to the given streams
func NewOutputTo(format string, out, errOut io.Writer) *Output {
	return &Output{format: format, out: out, errOut: errOut}
}

// outputFor returns an Output bound to the command's streams
func outputFor(cmd *cobra.Command) *Output {
	return NewOutputTo(cfg.Output, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		_, _ = fmt.Fprintln(o.errOut, string(data))
	} else {
		_, _ = fmt.Fprintf(o.errOut, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.out, string(data))
	} else {
		_, _ = fmt.Fprintln(o.out, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Health:
		o.printf("Status: %s\n", v.Status)
	case []response.CharacterSummary:
		o.printCharacterList(v)
	case response.Character:
		o.printCharacter(v)
	case *catalog.Catalog:
		o.printCatalog(v)
	default:
		o.printJSON(data)
	}
}

func (o *Output) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.out, format, args...)
}

func (o *Output) printCharacterList(list []response.CharacterSummary) {
	if len(list) == 0 {
		o.printf("No characters registered\n")
		return
	}
	tw := tabwriter.NewWriter(o.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "OWNER\tNAME\tHOUSE\tBALANCE")
	for _, c := range list {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", c.OwnerKey, c.DisplayName, orDash(c.House), c.Balance)
	}
	_ = tw.Flush()
}

func (o *Output) printCharacter(c response.Character) {
	o.printf("Character: %s (%s)\n", c.DisplayName, c.OwnerKey)
	o.printf("House: %s\n", orDash(c.House))
	o.printf("Personalities: %s\n", orDash(strings.Join(c.Personalities, ", ")))
	o.printf("Purse: %s (%d Knuts)\n", c.Purse.Display, c.Balance)

	a := c.Attributes
	o.printf("\nSTR %d  CON %d  SIZ %d  INT %d\n", a.Strength, a.Constitution, a.Size, a.Intelligence)
	o.printf("POW %d  DEX %d  APP %d  EDU %d\n", a.Willpower, a.Dexterity, a.Appearance, a.Education)

	d := c.Derived
	o.printf("\nHP %d  MP %d  SAN %d  Luck %d\n", d.HitPoints, d.MagicPoints, d.Sanity, c.Luck)
	o.printf("Move %d  Damage Bonus %s  Build %d  Status %s\n", d.Movement, d.DamageBonus, d.Build, d.Status)

	o.printf("\nSkill points: %d spent, %d left of %d\n", c.SkillPointsSpent, c.SkillPointsLeft, d.SkillPoints)
	tw := tabwriter.NewWriter(o.out, 0, 4, 2, ' ', 0)
	for _, s := range c.Skills {
		if s.Bonus > 0 {
			_, _ = fmt.Fprintf(tw, "  %s\t%d%%\t(+%d)\n", s.Name, s.Value, s.Bonus)
		} else {
			_, _ = fmt.Fprintf(tw, "  %s\t%d%%\t\n", s.Name, s.Value)
		}
	}
	_ = tw.Flush()
}

func (o *Output) printCatalog(c *catalog.Catalog) {
	o.printf("Houses:\n")
	for _, h := range c.Houses {
		o.printf("  %s: %s\n", h.Name, h.Modifier)
	}
	o.printf("\nPersonalities:\n")
	for _, p := range c.Personalities {
		o.printf("  %s: %s\n", p.Name, p.Modifier)
	}
	o.printf("\nSkills:\n")
	for _, s := range c.Skills {
		switch s.Scale {
		case catalog.ScaleEducation:
			o.printf("  %s: EDU\n", s.Name)
		case catalog.ScaleDexterityHalf:
			o.printf("  %s: DEX/2\n", s.Name)
		default:
			o.printf("  %s: %d%%\n", s.Name, s.Base)
		}
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
