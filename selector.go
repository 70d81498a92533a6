package civit

// SelectFile picks exactly one file from a version's candidates, matching
// the preference in three ordered tiers. First match in sequence order wins:
//
//  1. Primary: format and resource type both equal the preference.
//  2. Alt: format or resource type equals the preference. This is a
//     deliberate logical OR — a partial match on either axis qualifies.
//  3. Fallback: the first file in the sequence, regardless of format/type.
//
// Files whose format is entirely absent from the wire data do not
// participate in the Primary or Alt tiers, but remain eligible for
// Fallback. The tiers degrade gracefully so that a catalog without the
// ideal combination still yields a usable file instead of aborting.
//
// Returns ErrNoFilesAvailable only when files is empty.
func SelectFile(files []ResourceFile, pref Preference) (ResourceFile, error) {
	if len(files) == 0 {
		return ResourceFile{}, ErrNoFilesAvailable
	}

	// Primary: exact match on both axes.
	for _, f := range files {
		if f.Format == nil {
			continue
		}
		if f.normFormat() == pref.Format && f.normType() == pref.ResourceType {
			return f, nil
		}
	}

	// Alt: partial match on either axis.
	for _, f := range files {
		if f.Format == nil {
			continue
		}
		if f.normFormat() == pref.Format || f.normType() == pref.ResourceType {
			return f, nil
		}
	}

	return files[0], nil
}
