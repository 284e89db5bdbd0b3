package entities

import (
	"encoding/json"

	"edubba/domain/config"
)

// nodeDocument is the serialized form: every field plus the derived diode
// packet. The integrity hash travels inside provenance.
type nodeDocument struct {
	NodeFields
	DiodePacket *string `json:"diode_packet"`
}

// MarshalJSON emits the node's fields and its derived values.
func (n *MemoryNode) MarshalJSON() ([]byte, error) {
	doc := nodeDocument{NodeFields: n.fields}
	if packet, ok := n.DiodePacket(); ok {
		doc.DiodePacket = &packet
	}
	return json.Marshal(doc)
}

// UnmarshalJSON rebuilds the node through the default constructor, so a
// decoded node is as valid as a constructed one. Derived values present in
// the input are ignored.
func (n *MemoryNode) UnmarshalJSON(data []byte) error {
	node, err := DecodeMemoryNode(data, defaultConfig)
	if err != nil {
		return err
	}
	*n = *node
	return nil
}

// DecodeMemoryNode parses a serialized node and validates it against cfg.
func DecodeMemoryNode(data []byte, cfg *config.DomainConfig) (*MemoryNode, error) {
	var fields NodeFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return NewMemoryNodeWithConfig(fields, cfg)
}
