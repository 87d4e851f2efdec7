package state

import "slices"

// Provider is the party offering a deal
type Provider struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Cost holds the monetary amounts of a deal
type Cost struct {
	UpfrontCost       float64 `json:"upfrontCost"`
	TotalContractCost float64 `json:"totalContractCost"`
}

// Deal is a catalogue record bundling product categories from one provider.
// The store treats deals as immutable.
type Deal struct {
	ID             int      `json:"id"`
	Title          string   `json:"title"`
	Provider       Provider `json:"provider"`
	Cost           Cost     `json:"cost"`
	ProductTypes   []string `json:"productTypes"`
	ContractLength int      `json:"contractLength"`
}

// clone returns a copy of d that shares no backing arrays with it
func (d Deal) clone() Deal {
	d.ProductTypes = slices.Clone(d.ProductTypes)
	return d
}

func cloneDeals(deals []Deal) []Deal {
	cloned := make([]Deal, len(deals))
	for i, d := range deals {
		cloned[i] = d.clone()
	}
	return cloned
}
