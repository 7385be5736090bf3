package describe

import (
	"context"
	"strconv"

	"github.com/tidwall/gjson"

	"dhis2-tool/internal/dhis2"
	"dhis2-tool/internal/format"
	"dhis2-tool/internal/logging"
)

// Column names for description rows, in output order.
const (
	FieldGroupDescription = "Group Description"
	FieldIndicatorID      = "Indicator id"
	FieldIndicatorName    = "Indicator name"
	FieldNumeratorDesc    = "Numerator description"
	FieldDenominatorDesc  = "Denominator description"
	FieldCalculation      = "Calculation"
	FieldIndicatorURL     = "Indicator url"
	FieldComments         = "Validation comments"
)

// Fields lists the description row columns in output order.
var Fields = []string{
	FieldGroupDescription,
	FieldIndicatorID,
	FieldIndicatorName,
	FieldNumeratorDesc,
	FieldDenominatorDesc,
	FieldCalculation,
	FieldIndicatorURL,
	FieldComments,
}

// metadataSource is the slice of the DHIS2 client the describer needs.
type metadataSource interface {
	IndicatorTypes(ctx context.Context) ([]dhis2.IndicatorType, error)
	Element(ctx context.Context, elementType, id string) (gjson.Result, error)
	ObjectType(ctx context.Context, id string) (string, error)
}

// variableInfo caches the resolution of one formula variable id.
type variableInfo struct {
	name     string
	code     Code
	elemType string // depluralized, e.g. "dataElement"
}

// Describer renders indicator metadata into tabular rows with validation
// findings. Variable names and indicator type factors are cached per run, so
// a data element appearing in many formulas is fetched once.
type Describer struct {
	src     metadataSource
	baseURL string

	factors map[string]int64
	vars    map[string]variableInfo

	group    *dhis2.Group
	elements map[string]bool
}

// New builds a Describer and loads the indicator type factor map. Indicator
// types are e.g. "number", "percent", "per thousand"; each maps to the
// numerical factor of the indicator's denominator.
func New(ctx context.Context, src metadataSource, baseURL string) (*Describer, error) {
	d := &Describer{
		src:     src,
		baseURL: baseURL,
		factors: make(map[string]int64),
		vars:    make(map[string]variableInfo),
	}
	if err := d.loadFactors(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Describer) loadFactors(ctx context.Context) error {
	types, err := d.src.IndicatorTypes(ctx)
	if err != nil {
		return err
	}
	for _, it := range types {
		md, err := d.src.Element(ctx, "indicatorTypes", it.ID)
		if err == nil {
			if factor := md.Get("factor"); factor.Exists() {
				d.factors[it.ID] = factor.Int()
				continue
			}
		}
		// No factor in the metadata; fall back to the display name.
		n := ExtractFactor(it.DisplayName, false)
		if n == 0 {
			n = 1
		}
		d.factors[it.ID] = n
	}
	return nil
}

// SetGroup selects the group whose members subsequent DescribeAll calls
// operate on. The variable cache survives across groups.
func (d *Describer) SetGroup(group *dhis2.Group) {
	d.group = group
	d.elements = make(map[string]bool, len(group.ElementIDs))
	for _, id := range group.ElementIDs {
		d.elements[id] = true
	}
}

// DescribeAll fetches and describes every member of the current group, one
// row per indicator. Groups holding non-indicator elements yield no rows.
func (d *Describer) DescribeAll(ctx context.Context) ([]*format.Row, error) {
	if d.group == nil {
		return nil, nil
	}
	if d.group.ElementType != "indicators" {
		logging.Logf(logging.Warning, "Group '%s' holds %s, not indicators; no description rows emitted",
			d.group.DisplayName, d.group.ElementType)
		return nil, nil
	}

	rows := make([]*format.Row, 0, len(d.group.ElementIDs))
	for _, id := range d.group.ElementIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := d.describeIndicator(ctx, id)
		row.Set(FieldGroupDescription, d.group.DisplayName)
		rows = append(rows, row)
	}
	return rows, nil
}

// describeIndicator builds one row for an indicator. Metadata problems become
// validation findings rather than run failures, so one broken indicator does
// not hide the rest of the group.
func (d *Describer) describeIndicator(ctx context.Context, id string) *format.Row {
	row := format.NewRow()
	for _, field := range Fields {
		row.Set(field, "")
	}
	row.Set(FieldIndicatorID, id)

	var findings []Finding

	indicator, err := d.src.Element(ctx, "indicators", id)
	if err != nil || !indicator.Exists() {
		findings = append(findings, Finding{IndicatorNotInRegistry, []string{id}})
		row.Set(FieldComments, Messages(findings))
		return row
	}

	displayName := indicator.Get("displayName").String()
	if displayName == "" {
		findings = append(findings, Finding{IndicatorNoDisplayName, []string{id}})
	}
	row.Set(FieldIndicatorName, displayName)
	row.Set(FieldIndicatorURL, d.baseURL+"/api/indicators/"+id)

	typeFactor := int64(1)
	if typeID := indicator.Get("indicatorType.id").String(); typeID != "" {
		if factor, ok := d.factors[typeID]; ok {
			typeFactor = factor
		}
	}
	indicatorNumber := ExtractFactor(displayName, true)
	if indicatorNumber == 1 {
		indicatorNumber = 0
	}

	numeratorDesc := unknownName
	if v := indicator.Get("numeratorDescription"); v.Exists() {
		numeratorDesc = v.String()
	} else {
		findings = append(findings, Finding{NumeratorNoDescription, nil})
	}
	row.Set(FieldNumeratorDesc, numeratorDesc)
	numeratorNumber := ExtractFactor(numeratorDesc, true)

	denominatorDesc := "1"
	if v := indicator.Get("denominatorDescription"); v.Exists() && v.String() != "" {
		denominatorDesc = v.String()
	} else {
		findings = append(findings, Finding{DenominatorNoDescription, nil})
	}
	row.Set(FieldDenominatorDesc, denominatorDesc)
	denominatorNumber := ExtractFactor(denominatorDesc, true)
	if denominatorNumber == 1 {
		denominatorNumber = 0
	}

	if indicatorNumber != 0 &&
		indicatorNumber != denominatorNumber &&
		indicatorNumber != numeratorNumber &&
		indicatorNumber != typeFactor {
		findings = append(findings, Finding{IndicatorNumberMissing, []string{strconv.FormatInt(indicatorNumber, 10)}})
	}

	numerator := unknownName
	if v := indicator.Get("numerator"); v.Exists() {
		numerator = v.String()
	} else {
		findings = append(findings, Finding{NumeratorNoFormula, nil})
	}
	denominator := unknownName
	if v := indicator.Get("denominator"); v.Exists() {
		denominator = v.String()
	} else {
		findings = append(findings, Finding{DenominatorNoFormula, nil})
	}
	if (denominator == "1") != (denominatorDesc == "1") {
		findings = append(findings, Finding{DenominatorFormulaMismatch, nil})
	}
	// TODO: also treat reordered terms as equal (A+B+C vs A+C+B).
	if numerator == denominator {
		findings = append(findings, Finding{NumeratorEqualsDenominator, nil})
	}

	numeratorCalc, numeratorFindings := d.parseFormula(ctx, numerator, numeratorNumber, "numerator")
	findings = append(findings, numeratorFindings...)
	denominatorCalc, denominatorFindings := d.parseFormula(ctx, denominator, denominatorNumber, "denominator")
	findings = append(findings, denominatorFindings...)
	row.Set(FieldCalculation, "{"+numeratorCalc+" } / {"+denominatorCalc+" }")

	row.Set(FieldComments, Messages(findings))
	return row
}

// variableInfo resolves one formula variable id to its display name and
// type. Members of the current group skip the registry probe; everything
// else goes through identifiableObjects first. Results are cached.
func (d *Describer) variableInfo(ctx context.Context, id string) variableInfo {
	if info, ok := d.vars[id]; ok {
		return info
	}

	var result gjson.Result
	var err error
	var elemType string
	if d.elements[id] && d.group != nil {
		elemType = d.group.ElementType
		result, err = d.src.Element(ctx, elemType, id)
	} else {
		elemType, err = d.src.ObjectType(ctx, id)
		if err != nil {
			info := variableInfo{code: VariableNotInRegistry}
			d.vars[id] = info
			return info
		}
		result, err = d.src.Element(ctx, elemType, id)
	}

	info := variableInfo{elemType: deplural(elemType)}
	if err != nil {
		info.code = VariableNoMetadata
	} else if name := result.Get("displayName").String(); name != "" {
		info.name = name
	} else {
		info.code = VariableNoMetadata
	}
	d.vars[id] = info
	return info
}
