package domain

import "time"

// Persisted field names.
const (
	FieldEmail        = "email"
	FieldName         = "name"
	FieldPicture      = "picture"
	FieldCreationTime = "creationTime"
	FieldStatus       = "status"
	FieldTitle        = "title"
	FieldImages       = "images"
	FieldCreator      = "creator"
	FieldUID          = "uid"
	FieldCreatedAt    = "createdAt"
	FieldDescription  = "description"
	FieldProjectName  = "projectName"
	FieldCreatorName  = "creatorName"
	FieldURL          = "url"
)

// ProfileFromData decodes users/{uid}. A nil data map yields a profile with Exists=false.
func ProfileFromData(uid string, data map[string]any) Profile {
	p := Profile{ID: uid, Exists: data != nil}
	if data == nil {
		return p
	}
	p.Email = optString(data, FieldEmail)
	p.Name = optString(data, FieldName)
	p.Picture = optString(data, FieldPicture)
	p.CreationTime = optString(data, FieldCreationTime)
	if s := optString(data, FieldStatus); s != nil {
		p.Status = *s
	}
	return p
}

// ProjectFromData decodes projects/{projectId}. Non-string image entries are dropped.
func ProjectFromData(projectID string, data map[string]any) Project {
	p := Project{ID: projectID, Exists: data != nil}
	if data == nil {
		return p
	}
	p.Title = optString(data, FieldTitle)
	p.Images = stringList(data[FieldImages])
	if c, ok := data[FieldCreator].(map[string]any); ok {
		creator := &Creator{Name: optString(c, FieldName), Picture: optString(c, FieldPicture)}
		if uid := optString(c, FieldUID); uid != nil {
			creator.UID = *uid
		}
		p.Creator = creator
	}
	return p
}

// RelationshipFromData decodes the snapshot of projects/{projectId}/contributors/{uid}.
func RelationshipFromData(projectID, uid string, data map[string]any) ContributorRelationship {
	r := ContributorRelationship{ProjectID: projectID, UserID: uid}
	if data == nil {
		return r
	}
	r.Email = optString(data, FieldEmail)
	r.Name = optString(data, FieldName)
	r.Picture = optString(data, FieldPicture)
	r.Description = optString(data, FieldDescription)
	if s := optString(data, FieldStatus); s != nil {
		r.Status = *s
	}
	if t, ok := data[FieldCreatedAt].(time.Time); ok {
		r.CreatedAt = &t
	}
	return r
}

// IdentityFromData decodes an identity-provider user record.
func IdentityFromData(uid string, data map[string]any) Identity {
	id := Identity{UID: uid}
	if data == nil {
		return id
	}
	id.Email = optString(data, "email")
	id.DisplayName = optString(data, "displayName")
	id.PhotoURL = optString(data, "photoURL")
	if meta, ok := data["metadata"].(map[string]any); ok {
		id.CreationTime = optString(meta, "creationTime")
	}
	return id
}

// Fields returns the merge payload for the creator snapshot; absent optionals are omitted.
func (c Creator) Fields() map[string]any {
	m := map[string]any{FieldUID: c.UID}
	putOpt(m, FieldName, c.Name)
	putOpt(m, FieldPicture, c.Picture)
	return m
}

func (r ContributorRelationship) Fields() map[string]any {
	m := map[string]any{FieldStatus: r.Status}
	putOpt(m, FieldEmail, r.Email)
	putOpt(m, FieldName, r.Name)
	putOpt(m, FieldPicture, r.Picture)
	putOpt(m, FieldDescription, r.Description)
	if r.CreatedAt != nil {
		m[FieldCreatedAt] = *r.CreatedAt
	}
	return m
}

func (c Contribution) Fields() map[string]any {
	m := map[string]any{FieldStatus: c.Status}
	putOpt(m, FieldProjectName, c.ProjectName)
	putOpt(m, FieldCreatorName, c.CreatorName)
	putOpt(m, FieldDescription, c.Description)
	return m
}

// Fields always carries url, null when the notification links nowhere.
func (n Notification) Fields() map[string]any {
	m := map[string]any{
		FieldTitle:     n.Title,
		FieldStatus:    n.Status,
		FieldCreatedAt: n.CreatedAt,
	}
	if n.URL != nil {
		m[FieldURL] = *n.URL
	} else {
		m[FieldURL] = nil
	}
	return m
}

func (p Profile) Fields() map[string]any {
	m := map[string]any{FieldStatus: p.Status}
	putOpt(m, FieldEmail, p.Email)
	putOpt(m, FieldName, p.Name)
	putOpt(m, FieldPicture, p.Picture)
	putOpt(m, FieldCreationTime, p.CreationTime)
	return m
}

func optString(data map[string]any, key string) *string {
	s, ok := data[key].(string)
	if !ok {
		return nil
	}
	return &s
}

func putOpt(m map[string]any, key string, v *string) {
	if v != nil {
		m[key] = *v
	}
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		out := make([]string, len(list))
		copy(out, list)
		return out
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
