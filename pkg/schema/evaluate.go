package schema

// Merge combines peer-reported and self-reported versions into a new map.
// Local entries are applied last: a node's own report of its version wins
// over any peer's possibly stale view of it. Neither input is modified.
func Merge(peers, local VersionMap) VersionMap {
    out := make(VersionMap, len(peers)+len(local))
    for k, v := range peers { out[k] = v }
    for k, v := range local { out[k] = v }
    return out
}

// Evaluate reduces versions to a verdict. Agrees is true iff exactly one
// distinct token is present; an empty map does not agree. The result holds
// a copy of versions.
func Evaluate(versions VersionMap) AgreementResult {
    return AgreementResult{
        Agrees:   len(versions.Distinct()) == 1,
        Versions: versions.Clone(),
    }
}
