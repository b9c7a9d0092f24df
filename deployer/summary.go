package deployer

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/eir-deployer/interfaces"
)

// Summary is the printable outcome of a run.
type Summary struct {
	Network string          `json:"network"`
	Vault   common.Address  `json:"vault"`
	Manager common.Address  `json:"manager"`
	Modules []ModuleSummary `json:"modules"`
}

// ModuleSummary describes one provisioned and registered module.
type ModuleSummary struct {
	Name           string         `json:"name"`
	Symbol         string         `json:"symbol"`
	LinkedToken    common.Address `json:"linked_token"`
	Address        common.Address `json:"address"`
	RegistrationTx common.Hash    `json:"registration_tx"`
}

// Summary describes d. Resources not provisioned are left zero.
func (d *Deployment) Summary(network string) Summary {
	s := Summary{
		Network: network,
		Vault:   addressOf(d.Vault),
		Manager: addressOf(d.Manager),
		Modules: make([]ModuleSummary, 0, len(d.Modules)),
	}
	for _, m := range d.Modules {
		ms := ModuleSummary{
			Name:        m.Spec.Name,
			Symbol:      m.Spec.Symbol,
			LinkedToken: m.Spec.LinkedToken,
			Address:     addressOf(m.Handle),
		}
		if m.Registration != nil {
			ms.RegistrationTx = m.Registration.TxHash
		}
		s.Modules = append(s.Modules, ms)
	}
	return s
}

func addressOf(h interfaces.ResourceHandle) common.Address {
	if h == nil {
		return common.Address{}
	}
	return h.Address()
}
