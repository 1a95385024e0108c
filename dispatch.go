package replies

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tarmac-project/replies/metrics"
	"github.com/tarmac-project/replies/urlmatch"
)

// RoundTrip answers req from the registered rules. Unmatched requests under a
// passthrough prefix are sent through the original transport; any other
// unmatched request fails with a *ConnectionError.
func (m *Mock) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil || req.URL == nil {
		return nil, &ConnectionError{Request: req}
	}

	requestURL := urlmatch.RequestURL(req.URL)
	match := m.registry.FindMatch(req)

	if match == nil && m.registry.IsPassthrough(requestURL) {
		m.log.WithFields(logrus.Fields{
			"method": req.Method,
			"url":    requestURL,
		}).Info("request allowed by passthrough prefix")
		m.metrics.Observe(metrics.OutcomePassthrough)
		return m.passthrough().RoundTrip(req)
	}

	call := Call{ID: uuid.NewString()}
	log := m.log.WithFields(logrus.Fields{
		"method":  req.Method,
		"url":     requestURL,
		"call_id": call.ID,
	})

	captured, body, err := captureRequest(req)
	if err != nil {
		call.Request, call.Err = req, err
		if match != nil {
			match.base().fired.Add(1)
		}
		m.calls.add(call)
		m.metrics.Observe(metrics.OutcomeRuleError)
		log.WithError(err).Debug("failed to capture request body")
		return nil, err
	}
	call.Request, call.RequestBody = captured, body

	if match == nil {
		resp, err := m.postProcess(nil, &ConnectionError{Request: captured})
		call.Response, call.Err = resp, err
		m.calls.add(call)
		m.metrics.Observe(metrics.OutcomeRefused)
		log.Debug("no rule matches request")
		return resp, err
	}

	resp, err := match.respond(captured)
	if err == nil {
		// Unparsable cookies are skipped.
		for _, line := range resp.Header.Values("Set-Cookie") {
			if c, perr := http.ParseSetCookie(line); perr == nil {
				call.Cookies = append(call.Cookies, c)
			}
		}
	}
	resp, err = m.postProcess(resp, err)

	match.base().fired.Add(1)
	call.Response, call.Err = resp, err
	m.calls.add(call)

	if err != nil {
		m.metrics.Observe(metrics.OutcomeRuleError)
		log.WithError(err).Debug("rule produced an error")
		return nil, err
	}
	m.metrics.Observe(metrics.OutcomeMatched)
	log.WithField("status", resp.StatusCode).Debug("rule produced a response")
	return resp, nil
}

// postProcess applies the response callback. A callback returning neither a
// response nor an error yields ErrNilResponse.
func (m *Mock) postProcess(resp *http.Response, err error) (*http.Response, error) {
	if m.cfg.ResponseCallback == nil {
		return resp, err
	}
	resp, err = m.cfg.ResponseCallback(resp, err)
	if resp == nil && err == nil {
		return nil, ErrNilResponse
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (m *Mock) passthrough() http.RoundTripper {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.real == nil {
		return http.DefaultTransport
	}
	return m.real
}

// captureRequest reads the request body so it can be both recorded and read
// again by the rule.
func captureRequest(req *http.Request) (*http.Request, []byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return req, nil, nil
	}

	body, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, nil, errors.Join(ErrReadBody, err)
	}

	captured := req.Clone(req.Context())
	captured.Body = io.NopCloser(bytes.NewReader(body))
	captured.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	return captured, body, nil
}
