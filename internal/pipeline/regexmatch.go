package pipeline

import "regexp"

// bindCaptures reports whether re matches subject, and if so writes every
// named capture group onto r.SubprocessEnv, mirroring ap_regexec's
// interaction with apr_table_setn for the named groups a *Match section's
// regex binds into the environment available to hooks in later phases.
// The built-in <If> variables and the basic-auth provider do not read it.
func bindCaptures(re *regexp.Regexp, subject string, r *Request) bool {
	if re == nil {
		return false
	}
	match := re.FindStringSubmatch(subject)
	if match == nil {
		return false
	}
	if r == nil {
		return true
	}
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		r.SubprocessEnv[name] = match[i]
	}
	return true
}
