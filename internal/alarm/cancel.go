package alarm

import "context"

// cancelEntity cancels every registered reference of entityKey, continuing
// past individual failures. The registry entry is left untouched.
func (s *Service) cancelEntity(ctx context.Context, entityKey string) CancelResult {
	result := CancelResult{EntityKey: entityKey}
	refs := s.registry.Get(ctx, entityKey)
	for _, ref := range refs {
		if err := s.notifier.Cancel(ctx, ref); err != nil {
			result.Failed++
			s.log.Error(ctx, "Erro ao cancelar %s: %v", ref, err)
			continue
		}
		result.Cancelled++
	}
	if len(refs) > 0 {
		s.log.Info(ctx, "%d alarmes cancelados para %s", result.Cancelled, entityKey)
	}
	return result
}

func (s *Service) cancel(ctx context.Context, op, entityKey string) (CancelResult, error) {
	result := s.cancelEntity(ctx, entityKey)
	if err := s.registry.Remove(ctx, entityKey); err != nil {
		s.log.Error(ctx, "Erro ao remover identificadores de %s: %v", entityKey, err)
		return result, newError(op, entityKey, KindStorage, err)
	}
	return result, nil
}
