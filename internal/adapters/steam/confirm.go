package steam

// confirm.go — confirmaciones móviles (mobileconf). Cada request lleva una
// clave HMAC-SHA1 derivada del identity secret, el timestamp y un tag.

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// IdentitySecretKind is the only secret kind the confirmer knows how to use.
const IdentitySecretKind = "identitySecret"

// ErrConfirmationNotFound is returned when no pending confirmation matches the offer.
var ErrConfirmationNotFound = errors.New("confirmation not found")

// Confirmer implements ports.Confirmer with the account's identity secret.
type Confirmer struct {
	client         *Client
	identitySecret string
	now            func() time.Time
}

// NewConfirmer creates a Confirmer. identitySecret is the base64 secret from
// the mobile authenticator.
func NewConfirmer(client *Client, identitySecret string) *Confirmer {
	return &Confirmer{client: client, identitySecret: identitySecret, now: time.Now}
}

// ConfirmOffer finds the confirmation created for offerID and allows it.
func (cf *Confirmer) ConfirmOffer(ctx context.Context, secretKind, offerID string) error {
	if secretKind != IdentitySecretKind {
		return fmt.Errorf("steam.ConfirmOffer: unsupported secret kind %q", secretKind)
	}
	if cf.identitySecret == "" {
		return fmt.Errorf("steam.ConfirmOffer: identity secret not configured")
	}
	steamID := cf.client.SteamID()
	if steamID == "" {
		return fmt.Errorf("steam.ConfirmOffer: not logged in")
	}

	ts := cf.now().Unix()
	params, err := cf.params(steamID, ts, "conf")
	if err != nil {
		return fmt.Errorf("steam.ConfirmOffer: %w", err)
	}

	var list confirmationListResponse
	if err := cf.client.getJSON(ctx, cf.client.communityBase+"/mobileconf/getlist?"+params.Encode(), &list); err != nil {
		return fmt.Errorf("steam.ConfirmOffer: list: %w", err)
	}
	if !list.Success {
		return fmt.Errorf("steam.ConfirmOffer: list rejected: %s", list.Message)
	}

	var cid, nonce string
	for _, conf := range list.Conf {
		if conf.CreatorID == offerID {
			cid, nonce = conf.ID, conf.Nonce
			break
		}
	}
	if cid == "" {
		return fmt.Errorf("steam.ConfirmOffer %s: %w", offerID, ErrConfirmationNotFound)
	}

	params, err = cf.params(steamID, ts, "allow")
	if err != nil {
		return fmt.Errorf("steam.ConfirmOffer: %w", err)
	}
	params.Set("op", "allow")
	params.Set("cid", cid)
	params.Set("ck", nonce)

	var op confirmationOpResponse
	if err := cf.client.getJSON(ctx, cf.client.communityBase+"/mobileconf/ajaxop?"+params.Encode(), &op); err != nil {
		return fmt.Errorf("steam.ConfirmOffer %s: allow: %w", offerID, err)
	}
	if !op.Success {
		return fmt.Errorf("steam.ConfirmOffer %s: allow rejected: %s", offerID, op.Message)
	}
	return nil
}

func (cf *Confirmer) params(steamID string, ts int64, tag string) (url.Values, error) {
	key, err := confirmationKey(cf.identitySecret, ts, tag)
	if err != nil {
		return nil, err
	}
	return url.Values{
		"p":   {deviceID(steamID)},
		"a":   {steamID},
		"k":   {key},
		"t":   {strconv.FormatInt(ts, 10)},
		"m":   {"react"},
		"tag": {tag},
	}, nil
}

// confirmationKey = base64(HMAC-SHA1(secret, be64(time) || tag[:32])).
func confirmationKey(identitySecret string, ts int64, tag string) (string, error) {
	secret, err := base64.StdEncoding.DecodeString(identitySecret)
	if err != nil {
		return "", fmt.Errorf("decode identity secret: %w", err)
	}
	if len(tag) > 32 {
		tag = tag[:32]
	}
	buf := make([]byte, 8, 8+len(tag))
	binary.BigEndian.PutUint64(buf, uint64(ts))
	buf = append(buf, tag...)

	mac := hmac.New(sha1.New, secret)
	mac.Write(buf)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// deviceID is stable per account so the platform sees the same "phone".
func deviceID(steamID string) string {
	return "android:" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(steamID)).String()
}
