package valueobjects

import (
	"encoding/json"
	"regexp"
	"time"

	"edubba/pkg/utils"

	"github.com/google/uuid"
)

// ArtifactPathPattern is the handoff contract with the storage tier: an
// absolute path under a mount root with a file extension.
const ArtifactPathPattern = `^/mnt/[a-zA-Z0-9_\-/]+\.\w+$`

var artifactPath = regexp.MustCompile(ArtifactPathPattern)

func init() {
	utils.MustRegisterPattern("artifactpath", artifactPath)
}

// ArtifactPointer references an external object that backs a node.
type ArtifactPointer struct {
	Tier     StorageTier `json:"tier" validate:"enum"`
	Path     string      `json:"path" validate:"artifactpath"`
	FileType FileType    `json:"file_type" validate:"enum"`
	Checksum string      `json:"checksum" validate:"len=64"`
	SizeMB   float64     `json:"size_mb" validate:"gt=0"`
}

// NewArtifactPointer builds a validated pointer.
func NewArtifactPointer(tier StorageTier, path string, fileType FileType, checksum string, sizeMB float64) (ArtifactPointer, error) {
	a := ArtifactPointer{
		Tier:     tier,
		Path:     path,
		FileType: fileType,
		Checksum: checksum,
		SizeMB:   sizeMB,
	}
	if err := utils.ValidateStruct(a); err != nil {
		return ArtifactPointer{}, err
	}
	return a, nil
}

// DefaultEdgeWeight is the weight of an edge created without one.
const DefaultEdgeWeight = 1.0

// CausalEdge is a directed, typed link owned by the source node.
type CausalEdge struct {
	TargetID  uuid.UUID    `json:"target_id" validate:"required"`
	Relation  EdgeRelation `json:"relation" validate:"enum"`
	Weight    float64      `json:"weight" validate:"gte=0,lte=1"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewCausalEdge builds a validated edge stamped with the current UTC time.
func NewCausalEdge(target uuid.UUID, relation EdgeRelation, weight float64) (CausalEdge, error) {
	e := CausalEdge{
		TargetID:  target,
		Relation:  relation,
		Weight:    weight,
		CreatedAt: utils.NowUTC(),
	}
	if err := utils.ValidateStruct(e); err != nil {
		return CausalEdge{}, err
	}
	return e, nil
}

// UnmarshalJSON applies DefaultEdgeWeight when weight is omitted.
func (e *CausalEdge) UnmarshalJSON(data []byte) error {
	type edgeAlias CausalEdge
	alias := edgeAlias{Weight: DefaultEdgeWeight}
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*e = CausalEdge(alias)
	return nil
}
