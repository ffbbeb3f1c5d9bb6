package store

// Schema v1 - items, playlists and the Discogs catalogue
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Discogs releases (id is the Discogs release id)
CREATE TABLE IF NOT EXISTS releases (
  id INTEGER PRIMARY KEY,
  title TEXT NOT NULL,
  year INTEGER,
  country TEXT,
  formats TEXT,  -- JSON array
  genres TEXT,   -- JSON array
  styles TEXT,   -- JSON array
  uri TEXT,
  last_updated DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Discogs artists (id is the Discogs artist id)
CREATE TABLE IF NOT EXISTS artists (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  profile TEXT,
  uri TEXT,
  last_updated DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_artists_name ON artists(name);

CREATE TABLE IF NOT EXISTS release_artists (
  release_id INTEGER NOT NULL REFERENCES releases(id) ON DELETE CASCADE,
  artist_id INTEGER NOT NULL REFERENCES artists(id) ON DELETE CASCADE,
  role TEXT,
  position INTEGER DEFAULT 0,
  PRIMARY KEY (release_id, artist_id)
);

CREATE INDEX IF NOT EXISTS idx_release_artists_artist ON release_artists(artist_id);

-- Tracks have no Discogs id; (release_id, title) is the natural key
CREATE TABLE IF NOT EXISTS tracks (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  release_id INTEGER NOT NULL REFERENCES releases(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  duration TEXT,
  position TEXT,
  type TEXT,
  UNIQUE (release_id, title)
);

-- Local media items (id is the external video id)
CREATE TABLE IF NOT EXISTS items (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT,
  uploader TEXT,
  duration REAL DEFAULT 0,
  upload_date TEXT,
  width INTEGER DEFAULT 0,
  height INTEGER DEFAULT 0,
  video_file TEXT,
  thumbnail TEXT,
  deleted INTEGER DEFAULT 0,
  downloaded INTEGER DEFAULT 0,
  is_tune INTEGER DEFAULT 1,
  catalog_track_id INTEGER REFERENCES tracks(id) ON DELETE SET NULL,
  last_updated DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_items_unenriched ON items(catalog_track_id, is_tune, deleted);

CREATE TABLE IF NOT EXISTS playlists (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT,
  enabled INTEGER DEFAULT 1,
  last_updated DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS playlist_entries (
  playlist_id TEXT NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
  item_id TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
  PRIMARY KEY (playlist_id, item_id)
);

CREATE INDEX IF NOT EXISTS idx_playlist_entries_item ON playlist_entries(item_id);
`

// Schema v2 - songs, deduplicated by (artist_name, title)
const schemaV2 = `
CREATE TABLE IF NOT EXISTS songs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  artist_name TEXT NOT NULL,
  title TEXT NOT NULL,
  UNIQUE (artist_name, title)
);

CREATE TABLE IF NOT EXISTS song_items (
  song_id INTEGER NOT NULL REFERENCES songs(id) ON DELETE CASCADE,
  item_id TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
  version_type TEXT NOT NULL DEFAULT 'original'
    CHECK (version_type IN ('original', 'live', 'cover', 'lesson', 'other')),
  PRIMARY KEY (song_id, item_id)
);

CREATE INDEX IF NOT EXISTS idx_song_items_item ON song_items(item_id);
`
