package canvas

import "strings"

// bridgeScript is injected into every served HTML document so in-program
// JS can call back into the host over postMessage RPC (§4.Q). Responses
// are matched by requestId and resolve/reject the pending promise.
const bridgeScript = `<script>
(function(){
  var pending = {};
  var seq = 0;
  function call(method, params) {
    var requestId = 'req-' + (++seq);
    return new Promise(function(resolve, reject) {
      pending[requestId] = {resolve: resolve, reject: reject};
      window.parent.postMessage({type: 'ownai-bridge-request', requestId: requestId, method: method, params: params || {}}, '*');
    });
  }
  window.addEventListener('message', function(event) {
    var data = event.data;
    if (!data || !data.requestId || !pending[data.requestId]) return;
    var p = pending[data.requestId];
    delete pending[data.requestId];
    if (data.success) { p.resolve(data.data); } else { p.reject(data.error); }
  });
  window.ownai = {
    chat: function(params) { return call('chat', params); },
    storeData: function(params) { return call('storeData', params); },
    loadData: function(params) { return call('loadData', params); },
    notify: function(message, delayMs) { return call('notify', {message: message, delay_ms: delayMs}); },
    readFile: function(params) { return call('readFile', params); },
    writeFile: function(params) { return call('writeFile', params); }
  };
})();
</script>`

// injectBridge inserts the bridge script before </head> (case-insensitive
// first match), else before </body>, else prepends it (§4.Q step 5).
func injectBridge(html string) string {
	if idx := indexOfCloseTag(html, "</head>"); idx >= 0 {
		return html[:idx] + bridgeScript + html[idx:]
	}
	if idx := indexOfCloseTag(html, "</body>"); idx >= 0 {
		return html[:idx] + bridgeScript + html[idx:]
	}
	return bridgeScript + html
}

func indexOfCloseTag(html, tag string) int {
	return strings.Index(strings.ToLower(html), tag)
}
