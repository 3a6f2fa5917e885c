package workflow

import "fmt"

// Policy bundles the stage catalog with the rejection model selected at startup
type Policy struct {
	Catalog        *Catalog
	RejectionModel RejectionModel
}

// NewPolicy resolves a policy from its configured names
func NewPolicy(catalogName string, model RejectionModel) (Policy, error) {
	catalog, err := CatalogByName(catalogName)
	if err != nil {
		return Policy{}, err
	}
	if !model.IsValid() {
		return Policy{}, fmt.Errorf("unknown rejection model: %q", model)
	}
	return Policy{Catalog: catalog, RejectionModel: model}, nil
}

// CheckMove validates a stage move. Privileged actors may target any stage in
// the catalog; everyone else must target the expected next stage.
func (p Policy) CheckMove(from StageKey, status Status, hasMachining, privileged bool, target StageKey) error {
	if status.IsTerminal() {
		return fmt.Errorf("%w: status %s", ErrAlreadyTerminal, status)
	}
	if !p.Catalog.Contains(target) {
		return NewValidationError("target_stage", fmt.Sprintf("unknown stage %q", target))
	}
	if privileged {
		return nil
	}

	expected, ok := p.Catalog.Next(from, hasMachining)
	if !ok {
		return &TransitionError{From: from, Target: target}
	}
	if target != expected.Key {
		return &TransitionError{From: from, Target: target, Expected: expected.Key}
	}
	return nil
}

// CheckRejection validates a rejection and returns the stage the ficha ends up in
func (p Policy) CheckRejection(current StageKey, status Status, returnStage StageKey) (StageKey, error) {
	if status.IsTerminal() {
		return "", fmt.Errorf("%w: status %s", ErrAlreadyTerminal, status)
	}
	if current == p.Catalog.First().Key {
		return "", NewValidationError("current_stage", "ficha has not left the creation stage")
	}

	switch p.RejectionModel {
	case RejectionTerminalQueue:
		if returnStage != "" {
			return "", NewValidationError("return_stage", "return stage is not accepted by the rejection queue model")
		}
		return current, nil
	default:
		if returnStage == "" {
			return "", NewValidationError("return_stage", "return stage is required")
		}
		if !p.Catalog.Contains(returnStage) {
			return "", fmt.Errorf("%w: unknown stage %s", ErrInvalidReturnStage, returnStage)
		}
		if p.Catalog.Order(returnStage) >= p.Catalog.Order(current) {
			return "", fmt.Errorf("%w: %s is not before %s", ErrInvalidReturnStage, returnStage, current)
		}
		return returnStage, nil
	}
}

// CheckRejectFinal validates a terminal rejection
func (p Policy) CheckRejectFinal(status Status) error {
	if status.IsTerminal() {
		return fmt.Errorf("%w: status %s", ErrAlreadyTerminal, status)
	}
	return nil
}
