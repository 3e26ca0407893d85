/*
Package session manages the API bearer token for authenticated
sources.

The token lives in memory behind a RWMutex and is mirrored to a
0600 file under the data directory, so restarting the process keeps
the operator signed in. Writes go through a temp-file rename; an
interrupted write leaves the old token intact rather than a torn one.

A token equal to demo.TokenSentinel marks the demo session. The REST
and streaming sources refuse to send it upstream and report
themselves unavailable instead, which is what routes demo sessions to
canned data.

# Usage

	sess, err := session.NewManager(filepath.Join(dataDir, "token"))
	if err != nil {
		return err
	}

	sess.SetToken(loginResponse.Token)
	chain := source.NewRestSource(apiURL, sess.Token)
	sess.Clear() // sign out

# See Also

  - pkg/demo for the sentinel value
  - pkg/source for how the token gates source availability
*/
package session
