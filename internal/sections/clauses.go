package sections

import "strings"

// clauseList accumulates "<label>: <value>" clauses, skipping blank values.
type clauseList []string

func (c *clauseList) field(label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	*c = append(*c, label+": "+value)
}

func (c *clauseList) list(label string, values []string, sep string) {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return
	}
	*c = append(*c, label+": "+strings.Join(kept, sep))
}

func (c *clauseList) flag(on bool, text string) {
	if on {
		*c = append(*c, text)
	}
}

// span renders "<start|N/A> to <end|Present>" when either bound is known.
func (c *clauseList) span(label, start, end string) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" && end == "" {
		return
	}
	if start == "" {
		start = "N/A"
	}
	if end == "" {
		end = "Present"
	}
	*c = append(*c, label+": "+start+" to "+end)
}

// sentence joins the clauses behind a preamble and terminates with a period.
func (c clauseList) sentence(preamble string) string {
	return preamble + " " + strings.Join(c, ", ") + "."
}
