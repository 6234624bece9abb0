package domain

// EligiblePool returns the names allowed to win the next round. With
// allowRepeat every name is eligible; otherwise names already present in
// winners (by exact match) are excluded.
func EligiblePool(list NameList, winners []WinnerRecord, allowRepeat bool) NameList {
	if allowRepeat {
		return list.Clone()
	}
	won := make(map[string]struct{}, len(winners))
	for _, w := range winners {
		won[w.Name] = struct{}{}
	}
	pool := make(NameList, 0, len(list))
	for _, name := range list {
		if _, ok := won[name]; !ok {
			pool = append(pool, name)
		}
	}
	return pool
}

// PickOne selects a uniformly random name from pool.
func PickOne(pool NameList, rng RNG) (string, error) {
	if len(pool) == 0 {
		return "", ErrPoolExhausted
	}
	return pool[rng.Intn(len(pool))], nil
}
