package discovery

// BuildValidatedConfig folds a discovery Result into a ValidatedServerConfig.
// serverName, when non-empty, becomes the display name of the homeserver;
// otherwise the homeserver URL's hostname is used.
//
// With syntaxOnly set, a service whose URL is well-formed but failed its
// reachability probe is accepted and the probe failure is recorded as
// Warning.
func BuildValidatedConfig(serverName string, r *Result, syntaxOnly bool) (ValidatedServerConfig, error) {
	if r == nil {
		return ValidatedServerConfig{}, &DiscoveryError{Service: KeyHomeserver, Code: ErrUnexpectedHS}
	}
	hs, is := r.Homeserver, r.IdentityServer

	var warning Code
	var isURL string
	switch {
	case is.State == StateSuccess:
		isURL = is.BaseURL
	case is.State == StatePrompt || is.State == StateIgnore || is.State == "":
	case syntaxOnly && is.BaseURL != "" && is.Error.reachability():
		isURL = is.BaseURL
		warning = is.Error
	default:
		return ValidatedServerConfig{}, &DiscoveryError{Service: KeyIdentityServer, Code: orDefault(is.Error, ErrUnexpectedIS)}
	}

	if hs.State != StateSuccess {
		// ErrInvalidIS on the homeserver mirrors an identity server failure
		// that was already judged above.
		tolerable := hs.Error.reachability() || (hs.Error == ErrInvalidIS && isURL != "")
		if !(syntaxOnly && hs.BaseURL != "" && tolerable) {
			return ValidatedServerConfig{}, &DiscoveryError{Service: KeyHomeserver, Code: orDefault(hs.Error, ErrUnexpectedHS)}
		}
		if warning == "" {
			warning = hs.Error
		}
	}

	host := hostname(hs.BaseURL)
	name := serverName
	if name == "" {
		name = host
	}
	return ValidatedServerConfig{
		HSURL:             hs.BaseURL,
		HSName:            name,
		HSNameIsDifferent: host != name,
		ISURL:             isURL,
		Warning:           warning,
	}, nil
}

func orDefault(c, fallback Code) Code {
	if knownCodes[c] {
		return c
	}
	return fallback
}
