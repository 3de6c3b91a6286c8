package mojang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	mongodbu "github.com/minetourney/go-services/shared/mongodb"
)

// mojangProfile is the JSON shape of Mojang's username lookup response.
type mojangProfile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Verifier resolves Minecraft IGNs against the Mojang API and runs a
// background job that canonicalizes unverified profile IGNs, recording the
// Minecraft UUID. Verification is best-effort: registration never waits on it.
type Verifier struct {
	httpClient    *http.Client
	mojangBaseURL string

	profileCollection *mongo.Collection
	interval          time.Duration
	logger            *zap.SugaredLogger

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewVerifier creates a Verifier over the profiles collection.
func NewVerifier(mongoClient *mongodbu.Client, profilesCollectionName string, interval time.Duration, logger *zap.SugaredLogger) *Verifier {
	return &Verifier{
		httpClient:        &http.Client{Timeout: 5 * time.Second},
		mojangBaseURL:     "https://api.mojang.com/users/profiles/minecraft",
		profileCollection: mongoClient.Collection(profilesCollectionName),
		interval:          interval,
		logger:            logger,
		stopChan:          make(chan struct{}),
	}
}

// LookupIGN fetches the canonical spelling and UUID for a Minecraft IGN.
func (v *Verifier) LookupIGN(ctx context.Context, ign string) (name, uuid string, err error) {
	url := fmt.Sprintf("%s/%s", v.mojangBaseURL, ign)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to create Mojang API request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to make Mojang API request for IGN %s: %w", ign, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusNotFound {
			return "", "", fmt.Errorf("mojang profile not found for IGN %s", ign)
		}
		return "", "", fmt.Errorf("unexpected status from Mojang API for IGN %s: %d", ign, resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("failed to read Mojang API response for IGN %s: %w", ign, err)
	}

	var profile mojangProfile
	if err := json.Unmarshal(bodyBytes, &profile); err != nil {
		return "", "", fmt.Errorf("failed to unmarshal Mojang API response for IGN %s: %w", ign, err)
	}
	if profile.Name == "" || profile.ID == "" {
		return "", "", fmt.Errorf("mojang API returned empty profile for IGN %s", ign)
	}
	return profile.Name, profile.ID, nil
}

// StartVerifyJob begins the background IGN verification job. Call once from
// main; it blocks until StopVerifyJob.
func (v *Verifier) StartVerifyJob() {
	v.wg.Add(1)
	defer v.wg.Done()

	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	v.logger.Infof("Mojang verifier: background IGN verification job started, running every %v", v.interval)

	v.runSingleIteration()

	for {
		select {
		case <-ticker.C:
			v.runSingleIteration()
		case <-v.stopChan:
			v.logger.Info("Mojang verifier: background job stopping.")
			return
		}
	}
}

// StopVerifyJob signals the background job to stop and waits for it.
func (v *Verifier) StopVerifyJob() {
	close(v.stopChan)
	v.wg.Wait()
}

// runSingleIteration verifies one batch of unverified profile IGNs.
func (v *Verifier) runSingleIteration() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cursor, err := v.profileCollection.Find(ctx, bson.M{"ign_verified": false})
	if err != nil {
		v.logger.Errorf("Mojang verifier: failed to find unverified profiles: %v", err)
		return
	}
	defer cursor.Close(ctx)

	type pendingProfile struct {
		UserID string `bson:"_id"`
		IGN    string `bson:"ign"`
	}
	var pending []pendingProfile
	if err := cursor.All(ctx, &pending); err != nil {
		v.logger.Errorf("Mojang verifier: failed to decode unverified profiles: %v", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	v.logger.Infof("Mojang verifier: found %d unverified profiles to process.", len(pending))

	for _, p := range pending {
		select {
		case <-ctx.Done():
			return
		case <-time.After(100 * time.Millisecond): // pause between calls to respect rate limits
		}

		name, uuid, lookupErr := v.LookupIGN(ctx, p.IGN)
		if lookupErr != nil {
			v.logger.Warnf("Mojang verifier: failed to verify IGN %q for user %s: %v", p.IGN, p.UserID, lookupErr)
			continue
		}

		update := bson.M{"$set": bson.M{
			"ign":            name, // canonical spelling
			"minecraft_uuid": uuid,
			"ign_verified":   true,
		}}
		if _, updateErr := v.profileCollection.UpdateOne(ctx, bson.M{"_id": p.UserID}, update); updateErr != nil {
			v.logger.Warnf("Mojang verifier: failed to update profile %s: %v", p.UserID, updateErr)
		} else {
			v.logger.Infof("Mojang verifier: verified IGN %q for user %s.", name, p.UserID)
		}
	}
}
