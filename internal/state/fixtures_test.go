package state

const (
	providerSky      = 1
	providerVirgin   = 2
	providerBT       = 3
	providerPlusnet  = 4
	providerTalkTalk = 5
	providerEE       = 6
	providerVodafone = 7
)

func deal(id int, title string, provider Provider, upfront, total float64, productTypes ...string) Deal {
	return Deal{
		ID:             id,
		Title:          title,
		Provider:       provider,
		Cost:           Cost{UpfrontCost: upfront, TotalContractCost: total},
		ProductTypes:   productTypes,
		ContractLength: 18,
	}
}

// referenceDeals mirrors public/db.json
func referenceDeals() []Deal {
	sky := Provider{ID: providerSky, Name: "Sky"}
	virgin := Provider{ID: providerVirgin, Name: "Virgin Media"}
	bt := Provider{ID: providerBT, Name: "BT"}
	plusnet := Provider{ID: providerPlusnet, Name: "Plusnet"}
	talktalk := Provider{ID: providerTalkTalk, Name: "TalkTalk"}
	ee := Provider{ID: providerEE, Name: "EE"}
	vodafone := Provider{ID: providerVodafone, Name: "Vodafone"}

	return []Deal{
		deal(6158, "Broadband Essentials", bt, 9.99, 359.64, "Broadband", "Phone"),
		deal(6159, "BT Broadband & TV", bt, 25, 658.8, "Broadband", "TV", "Phone"),
		deal(6160, "BT Fibre & TV Max", bt, 49.99, 1018.8, "Fibre Broadband", "TV", "Phone"),
		deal(6161, "Sky Broadband & Sky Signature", sky, 19.95, 642, "Broadband", "TV"),
		deal(6162, "Virgin Bigger Bundle", virgin, 35, 1140, "Fibre Broadband", "TV", "Phone"),
		deal(6163, "Unlimited Broadband", plusnet, 5, 431.88, "Broadband", "Phone"),
		deal(6164, "Fast Broadband", talktalk, 0, 265.08, "Broadband"),
		deal(6165, "EE Fibre Plus", ee, 10, 479.76, "Fibre Broadband", "Phone"),
		deal(6166, "EE Fibre & Mobile", ee, 29.99, 839.76, "Fibre Broadband", "Mobile"),
		deal(6167, "Vodafone Red SIM", vodafone, 2.5, 240, "Mobile"),
		deal(6168, "Virgin TV Essentials", virgin, 60, 718.8, "TV", "Phone"),
	}
}

func titles(deals []Deal) []string {
	out := make([]string, len(deals))
	for i, d := range deals {
		out[i] = d.Title
	}
	return out
}

func intPtr(v int) *int {
	return &v
}
