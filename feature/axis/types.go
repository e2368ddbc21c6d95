package axis

// Kind identifies one analytic axis synchronized from the ERP.
type Kind string

const (
	// Projects is a built-in platform axis with the fixed id "projects".
	Projects Kind = "projects"
	// Plates and Subposts are custom axes whose platform ids are resolved
	// at runtime from the company's custom axis list.
	Plates   Kind = "plates"
	Subposts Kind = "subposts"
)

// localizedName is the French axis label each custom axis kind is matched
// against when resolving its platform id.
var localizedName = map[Kind]string{
	Plates:   "plaque",
	Subposts: "subpost",
}

// SourceFilter returns the value of the ERP type column selecting this
// axis kind's rows.
func (k Kind) SourceFilter() string {
	switch k {
	case Projects:
		return "PROJECT"
	case Plates:
		return "PLAQUE"
	case Subposts:
		return "SUBPOST"
	default:
		return ""
	}
}
