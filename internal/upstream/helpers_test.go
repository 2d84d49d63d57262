package upstream

import (
	"encoding/json"
	"net/http"
)

func jsonDecode(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}
