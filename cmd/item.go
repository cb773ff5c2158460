package cmd

import (
	"fmt"
	"strconv"

	"github.com/graest/orcamento/internal/cli"
	"github.com/graest/orcamento/internal/model"
	"github.com/graest/orcamento/internal/pipeline"

	"github.com/spf13/cobra"
)

var itemFlags struct {
	name          string
	person        string
	activity      string
	description   string
	justification string
	multiUnit     string
	kind          string
	quantity      float64
	unitCost      string
	salary        string
	charges       string
	hourly        string
	hours         float64
}

var itemCmd = &cobra.Command{
	Use:   "item",
	Short: "Manage budget line items",
}

var itemAddCmd = &cobra.Command{
	Use:   "add <plan> <category>",
	Short: "Add a line item to a category",
	Long: "Add a line item. Categories: equipment, labs, direct-staff, indirect-staff,\n" +
		"services, consumables, books, training, travel, other.\n" +
		"Amounts accept pt-BR notation, e.g. 1.234,56.",
	Args: cobra.ExactArgs(2),
	RunE: runItemAdd,
}

var itemEditCmd = &cobra.Command{
	Use:   "edit <plan> <category> <n>",
	Short: "Change fields of the n-th line item (1-based)",
	Long:  "Change the fields given as flags; every other field keeps its value.",
	Args:  cobra.ExactArgs(3),
	RunE:  runItemEdit,
}

var itemRmCmd = &cobra.Command{
	Use:   "rm <plan> <category> <n>",
	Short: "Remove the n-th line item (1-based) from a category",
	Args:  cobra.ExactArgs(3),
	RunE:  runItemRm,
}

var itemListCmd = &cobra.Command{
	Use:   "list <plan> <category>",
	Short: "List the line items of a category",
	Args:  cobra.ExactArgs(2),
	RunE:  runItemList,
}

func init() {
	for _, cmd := range []*cobra.Command{itemAddCmd, itemEditCmd} {
		f := cmd.Flags()
		f.StringVar(&itemFlags.name, "name", "", "Item name, or role for staff")
		f.StringVar(&itemFlags.person, "person", "", "Staff member name")
		f.StringVar(&itemFlags.activity, "activity", "", "Related activity")
		f.StringVar(&itemFlags.description, "description", "", "Description")
		f.StringVar(&itemFlags.justification, "justification", "", "Justification")
		f.StringVar(&itemFlags.multiUnit, "multi-unit", "", "Justification for more than one unit")
		f.StringVar(&itemFlags.kind, "type", "", "Item type")
		f.Float64Var(&itemFlags.quantity, "qty", 1, "Quantity")
		f.StringVar(&itemFlags.unitCost, "unit-cost", "0", "Unit cost")
		f.StringVar(&itemFlags.salary, "salary", "0", "Monthly base salary (staff)")
		f.StringVar(&itemFlags.charges, "charges", "0", "Monthly charges (staff)")
		f.StringVar(&itemFlags.hourly, "hourly", "0", "Hourly cost (staff, informational)")
		f.Float64Var(&itemFlags.hours, "hours", 0, "Total project hours (staff, derived from salary and hourly cost when omitted)")
	}

	itemCmd.AddCommand(itemAddCmd, itemEditCmd, itemRmCmd, itemListCmd)
	rootCmd.AddCommand(itemCmd)
}

func runItemAdd(cmd *cobra.Command, args []string) error {
	c, err := model.ParseCategory(args[1])
	if err != nil {
		return err
	}
	var base model.LineItem
	switch c.Kind() {
	case model.KindPersonnel:
		base = model.PersonnelItem{}
	case model.KindOther:
		base = model.OtherItem{Quantity: 1}
	default:
		base = model.EquipmentItem{Quantity: 1}
	}
	return editPlan(cmd.Context(), args[0], func(p *model.Snapshot) error {
		item, err := applyItemFlags(cmd, base, p.Duration())
		if err != nil {
			return err
		}
		if err := pipeline.AddItem(p, c, item); err != nil {
			return err
		}
		printCategory(p, c)
		return nil
	})
}

func runItemEdit(cmd *cobra.Command, args []string) error {
	c, err := model.ParseCategory(args[1])
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid item number %q", args[2])
	}
	return editPlan(cmd.Context(), args[0], func(p *model.Snapshot) error {
		items := p.Items(c)
		if n < 1 || n > len(items) {
			return fmt.Errorf("%s has %d items, no item %d: %w", c.Key(), len(items), n, model.ErrItemIndex)
		}
		item, err := applyItemFlags(cmd, items[n-1], p.Duration())
		if err != nil {
			return err
		}
		if err := pipeline.UpdateItem(p, c, n-1, item); err != nil {
			return err
		}
		printCategory(p, c)
		return nil
	})
}

func printCategory(p *model.Snapshot, c model.Category) {
	fmt.Printf("  %s: %d/%d items, total %s\n",
		c.Label(), p.Len(c), c.MaxItems(), cli.FormatBRL(pipeline.CategoryTotal(p, c)))
	if check := pipeline.Check(p, c); p.Duration() > 0 && !pipeline.Reconciled(check) {
		printCheck(p, c)
	}
}

// applyItemFlags overlays the flags set on cmd onto base.
func applyItemFlags(cmd *cobra.Command, base model.LineItem, months int) (model.LineItem, error) {
	set := cmd.Flags().Changed
	amount := func(name, value string, dst *float64) error {
		if !set(name) {
			return nil
		}
		v, err := cli.ParseAmount(value)
		if err != nil {
			return fmt.Errorf("--%s: %w", name, err)
		}
		*dst = v
		return nil
	}
	text := func(name, value string, dst *string) {
		if set(name) {
			*dst = value
		}
	}

	switch it := base.(type) {
	case model.PersonnelItem:
		text("name", itemFlags.name, &it.RoleName)
		text("person", itemFlags.person, &it.PersonName)
		for _, a := range []struct {
			name, value string
			dst         *float64
		}{
			{"salary", itemFlags.salary, &it.BaseSalary},
			{"charges", itemFlags.charges, &it.MonthlyCharges},
			{"hourly", itemFlags.hourly, &it.HourlyCost},
		} {
			if err := amount(a.name, a.value, a.dst); err != nil {
				return nil, err
			}
		}
		if set("hours") {
			it.TotalProjectHours = itemFlags.hours
		} else if set("salary") || set("hourly") {
			it.TotalProjectHours = model.ProjectHours(it.BaseSalary, it.HourlyCost, months)
		}
		return it, nil
	case model.OtherItem:
		text("description", itemFlags.description, &it.Description)
		if !set("description") {
			text("name", itemFlags.name, &it.Description)
		}
		text("justification", itemFlags.justification, &it.Justification)
		text("type", itemFlags.kind, &it.Type)
		if set("qty") {
			it.Quantity = itemFlags.quantity
		}
		if err := amount("unit-cost", itemFlags.unitCost, &it.UnitCost); err != nil {
			return nil, err
		}
		return it, nil
	case model.EquipmentItem:
		text("name", itemFlags.name, &it.Name)
		text("activity", itemFlags.activity, &it.Activity)
		text("description", itemFlags.description, &it.Description)
		text("justification", itemFlags.justification, &it.Justification)
		text("multi-unit", itemFlags.multiUnit, &it.MultiUnitJustification)
		text("type", itemFlags.kind, &it.Type)
		if set("qty") {
			it.Quantity = itemFlags.quantity
		}
		if err := amount("unit-cost", itemFlags.unitCost, &it.UnitCost); err != nil {
			return nil, err
		}
		return it, nil
	}
	return nil, fmt.Errorf("unsupported item %T", base)
}

func runItemRm(cmd *cobra.Command, args []string) error {
	c, err := model.ParseCategory(args[1])
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid item number %q", args[2])
	}
	return editPlan(cmd.Context(), args[0], func(p *model.Snapshot) error {
		if err := pipeline.RemoveItem(p, c, n-1); err != nil {
			return err
		}
		printCategory(p, c)
		return nil
	})
}

func runItemList(cmd *cobra.Command, args []string) error {
	c, err := model.ParseCategory(args[1])
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	p, err := st.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	months := p.Duration()
	var rows [][]string
	var headers []string
	switch c.Kind() {
	case model.KindPersonnel:
		headers = []string{"#", "Função", "Nome", "Salário", "Encargos", "Total"}
		for i, it := range p.PersonnelItems(c) {
			rows = append(rows, []string{strconv.Itoa(i + 1), it.RoleName, it.PersonName,
				cli.FormatBRL(it.BaseSalary), cli.FormatBRL(it.MonthlyCharges), cli.FormatBRL(it.Cost(months))})
		}
	case model.KindOther:
		headers = []string{"#", "Descrição", "Qtde", "Unitário", "Total"}
		for i, it := range p.OtherItems(c) {
			rows = append(rows, []string{strconv.Itoa(i + 1), it.Description,
				strconv.FormatFloat(it.Quantity, 'f', -1, 64), cli.FormatBRL(it.UnitCost), cli.FormatBRL(it.Cost(months))})
		}
	default:
		headers = []string{"#", "Nome", "Qtde", "Unitário", "Total"}
		for i, it := range p.EquipmentItems(c) {
			rows = append(rows, []string{strconv.Itoa(i + 1), it.Name,
				strconv.FormatFloat(it.Quantity, 'f', -1, 64), cli.FormatBRL(it.UnitCost), cli.FormatBRL(it.Cost(months))})
		}
	}
	if len(rows) == 0 {
		fmt.Printf("\n  %s has no items.\n", c.Label())
		return nil
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("%s (%d/%d)", c.Label(), len(rows), c.MaxItems()),
		Headers: headers,
		Rows:    rows,
	}))
	return nil
}
