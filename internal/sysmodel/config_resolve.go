package sysmodel

import "fmt"

// resolveTree walks the JSON config tree system -> panel -> cartridge ->
// fin -> module, applying each level's channel_settings override on top
// of its parent's already-resolved settings, and populates the flat
// PC/PCF/PCFM tables the rest of SystemModel indexes into.
func (m *SystemModel) resolveTree(cf *configFile) error {
	t := m.Topology

	m.cartridgeConfig = make([]CartridgeConfig, t.Panels*t.CartridgesPerPanel)
	m.finConfig = make([]FinConfig, t.Panels*t.CartridgesPerPanel*t.FinsPerCartridge)
	m.moduleConfig = make([]ModuleConfig, t.Panels*t.CartridgesPerPanel*t.FinsPerCartridge*t.ModulesPerFin)

	var systemSettings ModuleChannelConfig
	systemSettings.applyOverride(cf.ChannelSettings)

	if len(cf.Panels) != t.Panels {
		return fmt.Errorf("%w: config lists %d panels, topology wants %d",
			ErrInvalidTopology, len(cf.Panels), t.Panels)
	}

	for p, panel := range cf.Panels {
		panelSettings := systemSettings
		panelSettings.applyOverride(panel.ChannelSettings)

		if len(panel.Cartridges) != t.CartridgesPerPanel {
			return fmt.Errorf("%w: panel %d lists %d cartridges, topology wants %d",
				ErrInvalidTopology, p, len(panel.Cartridges), t.CartridgesPerPanel)
		}

		for c, cart := range panel.Cartridges {
			cartSettings := panelSettings
			cartSettings.applyOverride(cart.ChannelSettings)

			if cart.BackendBoard.DaqboardID < 0 || cart.BackendBoard.DaqboardID >= backendAddressSlots {
				return fmt.Errorf("%w: panel %d cartridge %d daqboard_id %d out of [0,%d)",
					ErrInvalidTopology, p, c, cart.BackendBoard.DaqboardID, backendAddressSlots)
			}
			m.cartridgeConfig[p*t.CartridgesPerPanel+c] = CartridgeConfig{
				BackendBoard: cart.BackendBoard,
			}

			if len(cart.Fins) != t.FinsPerCartridge {
				return fmt.Errorf("%w: panel %d cartridge %d lists %d fins, topology wants %d",
					ErrInvalidTopology, p, c, len(cart.Fins), t.FinsPerCartridge)
			}

			for f, fin := range cart.Fins {
				finSettings := cartSettings
				finSettings.applyOverride(fin.ChannelSettings)

				finIdx := (p*t.CartridgesPerPanel+c)*t.FinsPerCartridge + f
				m.finConfig[finIdx] = FinConfig{ExcludeThermistor: fin.ExcludeThermistor}

				if len(fin.Modules) != t.ModulesPerFin {
					return fmt.Errorf("%w: panel %d cartridge %d fin %d lists %d modules, topology wants %d",
						ErrInvalidTopology, p, c, f, len(fin.Modules), t.ModulesPerFin)
				}

				for mi, mod := range fin.Modules {
					modSettings := finSettings
					modSettings.applyOverride(mod.ChannelSettings)

					idx := t.PCFMIndex(p, c, f, mi)
					m.moduleConfig[idx] = ModuleConfig{
						Name:              mod.Name,
						BiasVoltage:       mod.BiasVoltage,
						LeakageCurrent:    mod.LeakageCurrent,
						SystemTemperature: mod.SystemTemperature,
						ChannelSettings:   modSettings,
					}
				}
			}
		}
	}
	return nil
}
