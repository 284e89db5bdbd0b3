package valueobjects

import "fmt"

// StorageTier labels the intended physical locality of a node's data.
// Informational only: nothing enforces movement between tiers.
type StorageTier string

const (
	T0HotRAM      StorageTier = "T0_RAM_Graph"
	T1HotNVMe     StorageTier = "T1_NVMe_Index"
	T2WarmPool    StorageTier = "T2_ZFS_Pool"
	T3ColdLake    StorageTier = "T3_QNAP_Main"
	T4DeepArchive StorageTier = "T4_QNAP_Sec"
)

var storageTiers = []StorageTier{T0HotRAM, T1HotNVMe, T2WarmPool, T3ColdLake, T4DeepArchive}

// IsValid reports whether t is one of the declared tiers.
func (t StorageTier) IsValid() bool { return t.Rank() >= 0 }

// Rank is the tier's position from hottest (0) to coldest (4), or -1.
func (t StorageTier) Rank() int {
	for i, tier := range storageTiers {
		if tier == t {
			return i
		}
	}
	return -1
}

func (t StorageTier) String() string { return string(t) }

// ParseStorageTier converts a tag into a StorageTier.
func ParseStorageTier(s string) (StorageTier, error) {
	t := StorageTier(s)
	if !t.IsValid() {
		return "", fmt.Errorf("unknown storage tier %q", s)
	}
	return t, nil
}

// DataClassification is the access-control label of a node. Restricted
// nodes must carry an artifact pointer and produce a diode packet.
type DataClassification string

const (
	Public     DataClassification = "public"
	Internal   DataClassification = "internal"
	Restricted DataClassification = "restricted"
)

func (c DataClassification) IsValid() bool {
	switch c {
	case Public, Internal, Restricted:
		return true
	}
	return false
}

func (c DataClassification) String() string { return string(c) }

// ParseDataClassification converts a tag into a DataClassification.
func ParseDataClassification(s string) (DataClassification, error) {
	c := DataClassification(s)
	if !c.IsValid() {
		return "", fmt.Errorf("unknown classification %q", s)
	}
	return c, nil
}

// KnowledgeDomain tags the subject area of a node.
type KnowledgeDomain string

const (
	DomainGeneral      KnowledgeDomain = "general"
	DomainFinance      KnowledgeDomain = "finance"
	DomainPhysicsQFT   KnowledgeDomain = "physics_qft"
	DomainQuantumComp  KnowledgeDomain = "quantum_comp"
	DomainNeuroscience KnowledgeDomain = "neuroscience"
	DomainSystems      KnowledgeDomain = "systems"
)

func (d KnowledgeDomain) IsValid() bool {
	switch d {
	case DomainGeneral, DomainFinance, DomainPhysicsQFT, DomainQuantumComp, DomainNeuroscience, DomainSystems:
		return true
	}
	return false
}

func (d KnowledgeDomain) String() string { return string(d) }

// ParseKnowledgeDomain converts a tag into a KnowledgeDomain.
func ParseKnowledgeDomain(s string) (KnowledgeDomain, error) {
	d := KnowledgeDomain(s)
	if !d.IsValid() {
		return "", fmt.Errorf("unknown knowledge domain %q", s)
	}
	return d, nil
}

// NodeType is the kind of memory a node records.
type NodeType string

const (
	NodeEpisodic NodeType = "episodic"
	NodeConcept  NodeType = "concept"
	NodeProof    NodeType = "proof"
	NodeArtifact NodeType = "artifact"
	NodeQuestion NodeType = "question"
)

func (t NodeType) IsValid() bool {
	switch t {
	case NodeEpisodic, NodeConcept, NodeProof, NodeArtifact, NodeQuestion:
		return true
	}
	return false
}

func (t NodeType) String() string { return string(t) }

// ParseNodeType converts a tag into a NodeType.
func ParseNodeType(s string) (NodeType, error) {
	t := NodeType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("unknown node type %q", s)
	}
	return t, nil
}

// EdgeRelation is the causal or logical meaning of a directed edge.
type EdgeRelation string

const (
	RelationCauses      EdgeRelation = "causes"
	RelationContradicts EdgeRelation = "contradicts"
	RelationReinforces  EdgeRelation = "reinforces"
	RelationResolves    EdgeRelation = "resolves"
	RelationMentions    EdgeRelation = "mentions"
)

func (r EdgeRelation) IsValid() bool {
	switch r {
	case RelationCauses, RelationContradicts, RelationReinforces, RelationResolves, RelationMentions:
		return true
	}
	return false
}

func (r EdgeRelation) String() string { return string(r) }

// ParseEdgeRelation converts a tag into an EdgeRelation.
func ParseEdgeRelation(s string) (EdgeRelation, error) {
	r := EdgeRelation(s)
	if !r.IsValid() {
		return "", fmt.Errorf("unknown edge relation %q", s)
	}
	return r, nil
}

// FileType is the format of an external artifact.
type FileType string

const (
	FilePDF      FileType = "pdf"
	FileJupyter  FileType = "jupyter"
	FileSimLog   FileType = "sim_log"
	FileCodebase FileType = "codebase"
	FileDataset  FileType = "dataset"
)

func (f FileType) IsValid() bool {
	switch f {
	case FilePDF, FileJupyter, FileSimLog, FileCodebase, FileDataset:
		return true
	}
	return false
}

func (f FileType) String() string { return string(f) }

// ContributorRole is the part a model played in reaching consensus.
type ContributorRole string

const (
	RoleProposer    ContributorRole = "proposer"
	RoleCritic      ContributorRole = "critic"
	RoleSynthesizer ContributorRole = "synthesizer"
	RoleHumanOracle ContributorRole = "human_oracle"
)

func (r ContributorRole) IsValid() bool {
	switch r {
	case RoleProposer, RoleCritic, RoleSynthesizer, RoleHumanOracle:
		return true
	}
	return false
}

func (r ContributorRole) String() string { return string(r) }

// ConsensusMethod is how contributors reached agreement.
type ConsensusMethod string

const (
	MethodUnanimous     ConsensusMethod = "unanimous"
	MethodMajorityVote  ConsensusMethod = "majority_vote"
	MethodHumanOverride ConsensusMethod = "human_override"
)

func (m ConsensusMethod) IsValid() bool {
	switch m {
	case MethodUnanimous, MethodMajorityVote, MethodHumanOverride:
		return true
	}
	return false
}

func (m ConsensusMethod) String() string { return string(m) }
