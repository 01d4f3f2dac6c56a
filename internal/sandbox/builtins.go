package sandbox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"
)

func (s *Sandbox) registerBuiltins(ctx context.Context, rt *goja.Runtime, httpInFlight *int32) {
	rt.Set("http_get", s.builtinHTTP(ctx, rt, httpInFlight, http.MethodGet))
	rt.Set("http_post", s.builtinHTTP(ctx, rt, httpInFlight, http.MethodPost))
	rt.Set("http_request", s.builtinHTTPRequest(ctx, rt, httpInFlight))
	rt.Set("read_file", s.builtinReadFile(rt))
	rt.Set("write_file", s.builtinWriteFile(rt))
	rt.Set("json_parse", s.builtinJSONParse(rt))
	rt.Set("json_stringify", s.builtinJSONStringify(rt))
	rt.Set("regex_match", s.builtinRegexMatch(rt))
	rt.Set("regex_replace", s.builtinRegexReplace(rt))
	rt.Set("base64_encode", func(call goja.FunctionCall) goja.Value {
		return rt.ToValue(base64.StdEncoding.EncodeToString([]byte(call.Argument(0).String())))
	})
	rt.Set("base64_decode", func(call goja.FunctionCall) goja.Value {
		decoded, err := base64.StdEncoding.DecodeString(call.Argument(0).String())
		if err != nil {
			panic(rt.NewGoError(err))
		}
		return rt.ToValue(string(decoded))
	})
	rt.Set("url_encode", func(call goja.FunctionCall) goja.Value {
		return rt.ToValue(url.QueryEscape(call.Argument(0).String()))
	})
	rt.Set("get_current_datetime", func(call goja.FunctionCall) goja.Value {
		return rt.ToValue(time.Now().UTC().Format(time.RFC3339))
	})
	rt.Set("send_notification", s.builtinNotify(ctx, rt))
}

func httpClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func (s *Sandbox) builtinHTTP(ctx context.Context, rt *goja.Runtime, inFlight *int32, method string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		u := call.Argument(0).String()
		var body io.Reader
		if method == http.MethodPost && len(call.Arguments) > 1 {
			body = strings.NewReader(call.Argument(1).String())
		}
		return rt.ToValue(s.doHTTP(ctx, rt, inFlight, method, u, nil, body))
	}
}

func (s *Sandbox) builtinHTTPRequest(ctx context.Context, rt *goja.Runtime, inFlight *int32) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		method := call.Argument(0).String()
		u := call.Argument(1).String()
		headers := map[string]string{}
		if len(call.Arguments) > 2 {
			if m, ok := call.Argument(2).Export().(map[string]interface{}); ok {
				for k, v := range m {
					headers[k] = fmt.Sprintf("%v", v)
				}
			}
		}
		var body io.Reader
		if len(call.Arguments) > 3 {
			body = strings.NewReader(call.Argument(3).String())
		}
		return rt.ToValue(s.doHTTP(ctx, rt, inFlight, method, u, headers, body))
	}
}

func (s *Sandbox) doHTTP(ctx context.Context, rt *goja.Runtime, inFlight *int32, method, rawURL string, headers map[string]string, body io.Reader) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme != "https" {
		panic(rt.NewGoError(errLimitExceeded("only https:// URLs are allowed: " + rawURL)))
	}

	atomic.AddInt32(inFlight, 1)
	defer atomic.AddInt32(inFlight, -1)

	reqCtx, cancel := context.WithTimeout(ctx, s.limits.HTTPTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, rawURL, body)
	if err != nil {
		panic(rt.NewGoError(err))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httpClient(s.limits.HTTPTimeout).Do(req)
	if err != nil {
		panic(rt.NewGoError(err))
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, int64(s.limits.MaxStringSize))
	out, err := io.ReadAll(limited)
	if err != nil {
		panic(rt.NewGoError(err))
	}
	return string(out)
}

func (s *Sandbox) builtinReadFile(rt *goja.Runtime) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		path, err := SafeJoin(s.workspaceRoot, call.Argument(0).String())
		if err != nil {
			panic(rt.NewGoError(err))
		}
		data, err := os.ReadFile(path)
		if err != nil {
			panic(rt.NewGoError(err))
		}
		if len(data) > s.limits.MaxStringSize {
			panic(rt.NewGoError(errLimitExceeded("file exceeds max_string_size")))
		}
		return rt.ToValue(string(data))
	}
}

func (s *Sandbox) builtinWriteFile(rt *goja.Runtime) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		path, err := SafeJoin(s.workspaceRoot, call.Argument(0).String())
		if err != nil {
			panic(rt.NewGoError(err))
		}
		content := call.Argument(1).String()
		if len(content) > s.limits.MaxStringSize {
			panic(rt.NewGoError(errLimitExceeded("content exceeds max_string_size")))
		}
		if err := os.MkdirAll(dirOf(path), 0o755); err != nil {
			panic(rt.NewGoError(err))
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			panic(rt.NewGoError(err))
		}
		return goja.Undefined()
	}
}

func (s *Sandbox) builtinJSONParse(rt *goja.Runtime) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		var v interface{}
		if err := json.Unmarshal([]byte(call.Argument(0).String()), &v); err != nil {
			panic(rt.NewGoError(err))
		}
		return rt.ToValue(v)
	}
}

func (s *Sandbox) builtinJSONStringify(rt *goja.Runtime) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		out, err := json.Marshal(call.Argument(0).Export())
		if err != nil {
			panic(rt.NewGoError(err))
		}
		return rt.ToValue(string(out))
	}
}

func (s *Sandbox) builtinRegexMatch(rt *goja.Runtime) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		re, err := regexp.Compile(call.Argument(0).String())
		if err != nil {
			panic(rt.NewGoError(err))
		}
		return rt.ToValue(re.MatchString(call.Argument(1).String()))
	}
}

func (s *Sandbox) builtinRegexReplace(rt *goja.Runtime) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		re, err := regexp.Compile(call.Argument(0).String())
		if err != nil {
			panic(rt.NewGoError(err))
		}
		return rt.ToValue(re.ReplaceAllString(call.Argument(1).String(), call.Argument(2).String()))
	}
}

func (s *Sandbox) builtinNotify(ctx context.Context, rt *goja.Runtime) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if s.notifier == nil {
			return goja.Undefined()
		}
		if err := s.notifier.Notify(ctx, call.Argument(0).String()); err != nil {
			panic(rt.NewGoError(err))
		}
		return goja.Undefined()
	}
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[:i]
		}
	}
	return "."
}
