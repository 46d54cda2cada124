package enrollment

import (
	"errors"
	"fmt"
	"io"

	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/storage"
)

// ProofType is the detected type of a payment proof
type ProofType = storage.FileType

// DetectProof checks that data is a non-empty image or document and returns its detected type
func DetectProof(data []byte) (ProofType, error) {
	pt, err := storage.Detect(data, storage.ImageTypes, storage.DocumentTypes)
	if err != nil {
		return ProofType{}, proofError(err)
	}
	return pt, nil
}

// SniffProof detects the type of a streamed payment proof.
//
// The returned reader yields the complete payload including the inspected header bytes.
func SniffProof(r io.Reader) (ProofType, io.Reader, error) {
	pt, body, err := storage.Sniff(r, storage.ImageTypes, storage.DocumentTypes)
	if err != nil {
		return ProofType{}, nil, proofError(err)
	}
	return pt, body, nil
}

func proofError(err error) error {
	switch {
	case errors.Is(err, storage.ErrEmptyFile):
		return apperrors.Clone(apperrors.ErrValidation, "payment proof is empty")
	case errors.Is(err, storage.ErrUnsupportedType):
		return apperrors.Wrap(err, apperrors.ErrValidation.Code, apperrors.ErrValidation.Status,
			fmt.Sprintf("payment proof must be an image or a document: %v", err))
	}
	return fmt.Errorf("failed to read payment proof: %w", err)
}
